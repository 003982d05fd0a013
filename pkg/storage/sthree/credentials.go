package sthree

import "github.com/aws/aws-sdk-go/aws/credentials"

func credentialsFor(accessKey, secretKey string) *credentials.Credentials {
	if accessKey == "" && secretKey == "" {
		// fall back on the default credential chain of the session
		return nil
	}
	return credentials.NewStaticCredentials(accessKey, secretKey, "")
}

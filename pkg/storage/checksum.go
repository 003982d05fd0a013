// Copyright © 2018 One Concern

package storage

import (
	"crypto/md5" // #nosec: MD5 is what object stores report as content checksum
	"encoding/hex"
	"io"
	"os"
)

// ChecksumReader computes the hex encoded MD5 of a stream
func ChecksumReader(r io.Reader) (string, error) {
	h := md5.New() // #nosec
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileChecksum computes the hex encoded MD5 of a local file, comparable with Store.Checksum
func FileChecksum(pth string) (string, error) {
	f, err := os.Open(pth)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ChecksumReader(f)
}

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	errCredentialsMissing = errors.New("credentials file missing")
	errCredentialsCorrupt = errors.New("credentials file corrupt")
)

// credentialsFile 读写 {"hashed_password": "..."}，每次读取都回到磁盘，
// 便于运维直接替换文件。
type credentialsFile struct {
	path string
}

type credentialsPayload struct {
	HashedPassword string `json:"hashed_password"`
}

func (c *credentialsFile) load() (string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errCredentialsMissing
		}
		return "", fmt.Errorf("auth: read %s: %w", c.path, err)
	}
	var payload credentialsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", errCredentialsCorrupt, err)
	}
	if payload.HashedPassword == "" {
		return "", fmt.Errorf("%w: hashed_password is empty", errCredentialsCorrupt)
	}
	return payload.HashedPassword, nil
}

// store 通过临时文件 + rename 原子替换凭据文件。
func (c *credentialsFile) store(hash string) error {
	data, err := json.Marshal(credentialsPayload{HashedPassword: hash})
	if err != nil {
		return err
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("auth: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".auth-*")
	if err != nil {
		return fmt.Errorf("auth: write %s: %w", c.path, err)
	}
	tmpName := tmp.Name()
	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0o600)
	}
	if err == nil {
		err = os.Rename(tmpName, c.path)
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("auth: write %s: %w", c.path, err)
	}
	return nil
}

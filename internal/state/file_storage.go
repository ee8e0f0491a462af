package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStorage は1キー1ファイルのローカル永続ストレージ。
// 書き込みは一時ファイル + renameで行い、途中クラッシュによる
// 部分書き込みが観測されないようにする。
type FileStorage struct {
	dir string
}

// NewFileStorage は指定ディレクトリ配下にキーを保存するFileStorageを生成する。
// ディレクトリが存在しない場合は作成する。
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Get はキーに対応する値を読み取る。キーが存在しない場合はok=falseを返す。
func (f *FileStorage) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state file: %w", err)
	}
	return string(data), true, nil
}

// Set はキーに値を書き込む。一時ファイルに書いてからrenameする。
func (f *FileStorage) Set(key, value string) error {
	tmp, err := os.CreateTemp(f.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}

// Remove はキーを削除する。キーが存在しない場合も成功とする。
func (f *FileStorage) Remove(key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

// path はキーに対応するファイルパスを返す。
func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// compile-time interface check
var _ Storage = (*FileStorage)(nil)

package repository

import "errors"

// ErrMemoryNotFound 指定されたメモリーが存在しない場合のエラー
var ErrMemoryNotFound = errors.New("memory not found")

// ErrNotAuthor 投稿者以外が更新・削除を試みた場合のエラー
var ErrNotAuthor = errors.New("not the author of this memory")

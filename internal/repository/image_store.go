package repository

import (
	"context"
	"io"
)

// アップロードされた画像1枚
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// 画像の保存先。返す参照（URL）は中身を解釈しない文字列として扱う。
type ImageStore interface {
	Save(ctx context.Context, img ImageUpload) (string, error)
	// 失敗しても呼び出し側は処理を続ける
	Remove(ctx context.Context, ref string) error
}

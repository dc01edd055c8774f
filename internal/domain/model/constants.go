package model

// MemoryTypeConstants アプリケーションで使用するメモリー種別の定数
const (
	MemoryTypeStory  = "story"
	MemoryTypePhoto  = "photo"
	MemoryTypeAudio  = "audio"
	MemoryTypeMoment = "moment"
)

// VisibilityConstants メモリーの公開範囲の定数
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// 検索パラメータのデフォルト値と上限
const (
	DefaultSearchRadiusMeters = 500
	MaxSearchRadiusMeters     = 10000
	DefaultListLimit          = 50
	MaxListLimit              = 200
)

// ValidMemoryTypes 受け付けるメモリー種別の集合
var ValidMemoryTypes = map[string]bool{
	MemoryTypeStory:  true,
	MemoryTypePhoto:  true,
	MemoryTypeAudio:  true,
	MemoryTypeMoment: true,
}

// ValidVisibilities 受け付ける公開範囲の集合
var ValidVisibilities = map[string]bool{
	VisibilityPublic:  true,
	VisibilityPrivate: true,
}

// IsValidMemoryType メモリー種別が有効かどうかを判定
func IsValidMemoryType(memoryType string) bool {
	return ValidMemoryTypes[memoryType]
}

// IsValidVisibility 公開範囲が有効かどうかを判定
func IsValidVisibility(visibility string) bool {
	return ValidVisibilities[visibility]
}

package lexicon

import "errors"

var (
	// ErrEmptyCategory 表示某个词表为空（配置错误，拒绝运行）。
	ErrEmptyCategory = errors.New("lexicon: vocabulary category is empty")
	// ErrNoFamilies 表示模板族列表为空。
	ErrNoFamilies = errors.New("lexicon: no template families")
	// ErrIndexRange 表示候选序号超出索引空间。
	ErrIndexRange = errors.New("lexicon: candidate index out of range")
)

package xperfconf

import "errors"

// 剖面加载和解析相关错误。
var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xperfconf: empty profile path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xperfconf: unsupported profile format")

	// ErrLoadFailed 表示配置加载失败。
	ErrLoadFailed = errors.New("xperfconf: failed to load profile")

	// ErrParseFailed 表示配置解析失败。
	ErrParseFailed = errors.New("xperfconf: failed to parse profile")

	// ErrUnmarshalFailed 表示配置反序列化失败。
	ErrUnmarshalFailed = errors.New("xperfconf: failed to unmarshal profile")

	// ErrInvalidProfile 表示剖面字段超出有效范围。
	ErrInvalidProfile = errors.New("xperfconf: invalid profile")

	// ErrNotReloadable 表示从字节数据创建的 Loader 不支持重载/监视。
	ErrNotReloadable = errors.New("xperfconf: loader created from bytes cannot reload")
)

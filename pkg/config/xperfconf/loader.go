package xperfconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义剖面文件格式。
type Format string

// 支持的剖面格式。
const (
	// FormatYAML YAML 格式（推荐）。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// Loader 持有解析后的剖面并支持并发安全的重载。
type Loader struct {
	mu      sync.RWMutex
	profile Profile
	path    string
	format  Format
	opts    *Options
	isBytes bool
}

// Load 从文件路径创建剖面加载器。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
// 未出现在文件中的字段保持 [Default] 的取值。
func Load(path string, opts ...Option) (*Loader, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	profile, err := parseProfile(data, format, options)
	if err != nil {
		return nil, err
	}

	return &Loader{
		profile: profile,
		path:    path,
		format:  format,
		opts:    options,
	}, nil
}

// LoadBytes 从字节数据创建剖面加载器，需要显式指定格式。
// 空数据得到 [Default] 剖面。从字节创建的 Loader 不支持 Reload/Watch。
func LoadBytes(data []byte, format Format, opts ...Option) (*Loader, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	profile, err := parseProfile(data, format, options)
	if err != nil {
		return nil, err
	}

	return &Loader{
		profile: profile,
		format:  format,
		opts:    options,
		isBytes: true,
	}, nil
}

// Snapshot 返回当前剖面的值拷贝。
// 拷贝不受后续 Reload 影响（Flops 表在解析时整体重建，不被原地修改）。
func (l *Loader) Snapshot() Profile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.profile
}

// Reload 重新读取并解析剖面文件，解析成功后整体替换快照。
// 解析失败时保留旧剖面。并发调用被互斥锁序列化，防止配置回退。
// 仅对从文件创建的 Loader 有效。
func (l *Loader) Reload() error {
	if l.isBytes {
		return ErrNotReloadable
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	profile, err := parseProfile(data, l.format, l.opts)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.profile = profile
	l.mu.Unlock()
	return nil
}

// Path 返回剖面文件路径，从字节创建时为空字符串。
func (l *Loader) Path() string {
	return l.path
}

// Format 返回剖面格式。
func (l *Loader) Format() Format {
	return l.format
}

// =============================================================================
// 内部辅助函数
// =============================================================================

// detectFormat 根据文件扩展名检测剖面格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

// isValidFormat 检查格式是否有效。
func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// parseProfile 把原始数据解析为 Profile：
// 从 Default 出发，经 koanf 反序列化覆盖，最后整体校验。
func parseProfile(data []byte, format Format, opts *Options) (Profile, error) {
	profile := Default()

	if len(data) > 0 {
		var parser koanf.Parser
		switch format {
		case FormatYAML:
			parser = yaml.Parser()
		case FormatJSON:
			parser = json.Parser()
		default:
			return Profile{}, ErrUnsupportedFormat
		}

		k := koanf.New(opts.Delim)
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return Profile{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
		if err := k.UnmarshalWithConf("", &profile, koanf.UnmarshalConf{
			Tag: opts.Tag,
		}); err != nil {
			return Profile{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
		}
	}

	if err := profile.validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

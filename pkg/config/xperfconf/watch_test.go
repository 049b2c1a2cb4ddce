package xperfconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: true\n"), 0o600))

	loader, err := Load(path)
	require.NoError(t, err)

	reloaded := make(chan Profile, 1)
	watcher, err := Watch(loader, func(p Profile, err error) {
		if err == nil {
			select {
			case reloaded <- p:
			default:
			}
		}
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	watcher.StartAsync()
	defer watcher.Stop()

	// 给 fsnotify 一点建立监听的时间再改文件
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("enabled: false\n"), 0o600))

	select {
	case p := <-reloaded:
		assert.False(t, p.Enabled)
	case <-time.After(3 * time.Second):
		t.Fatal("等待重载回调超时")
	}
	assert.False(t, loader.Snapshot().Enabled)
}

// 解析失败时回调收到错误，旧剖面保持可用。
func TestWatch_CallbackReceivesParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: true\n"), 0o600))

	loader, err := Load(path)
	require.NoError(t, err)

	errs := make(chan error, 1)
	watcher, err := Watch(loader, func(_ Profile, err error) {
		if err != nil {
			select {
			case errs <- err:
			default:
			}
		}
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	watcher.StartAsync()
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("enabled: [broken"), 0o600))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrParseFailed)
	case <-time.After(3 * time.Second):
		t.Fatal("等待错误回调超时")
	}
	assert.True(t, loader.Snapshot().Enabled)
}

// 同目录其它文件的变更不触发重载。
func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "perf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: true\n"), 0o600))

	loader, err := Load(path)
	require.NoError(t, err)

	fired := make(chan struct{}, 1)
	watcher, err := Watch(loader, func(Profile, error) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	watcher.StartAsync()
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))

	select {
	case <-fired:
		t.Fatal("不应因无关文件触发回调")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: true\n"), 0o600))

	loader, err := Load(path)
	require.NoError(t, err)

	watcher, err := Watch(loader, nil)
	require.NoError(t, err)

	watcher.StartAsync()
	require.NoError(t, watcher.Stop())
	require.NoError(t, watcher.Stop())
}

func TestWatch_RequiresLoader(t *testing.T) {
	_, err := Watch(nil, nil)
	assert.Error(t, err)
}

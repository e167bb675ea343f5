package templates

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jordanella.com/pk-hunter/internal/cv"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(((x/2 + y/2) % 2) * 200)
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestFileStoreTemplateCaching(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "skill1.png"), checker(8, 8))

	store := NewFileStore(dir, dir, nil)
	tpl, err := store.Template("skill1.png")
	require.NoError(t, err)
	assert.Equal(t, "skill1.png", tpl.Name)
	assert.Equal(t, image.Pt(8, 8), tpl.Size())
	assert.False(t, tpl.Masked())

	again, err := store.Template("skill1.png")
	require.NoError(t, err)
	assert.Same(t, tpl, again)

	stats := store.CacheStats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestFileStoreMissingTemplate(t *testing.T) {
	store := NewFileStore(t.TempDir(), t.TempDir(), nil)
	_, err := store.Template("nope.png")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = store.WithoutImageCache().Template("nope.png")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestFileStoreCorruptTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("garbage"), 0644))

	_, err := NewFileStore(dir, dir, nil).Template("bad.png")
	assert.ErrorIs(t, err, cv.ErrInvalidImage)
}

func TestRegistryResolvesAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "ui", "tab.png"), checker(6, 6))

	yamlDoc := `templates:
  - name: nearby_tab
    path: ui/tab.png
    threshold: 0.9
    region: {x: 0, y: 290, width: 150, height: 80}
    preload: true
  - name: skill1.png
`
	regDir := filepath.Join(dir, "registry")
	require.NoError(t, os.MkdirAll(regDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(regDir, "ui.yaml"), []byte(yamlDoc), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(regDir, "notes.txt"), []byte("ignored"), 0644))

	reg := NewRegistry()
	require.NoError(t, reg.LoadFromDirectory(regDir))
	assert.Equal(t, 2, reg.Count())
	assert.Equal(t, "skill1.png", reg.Resolve("skill1.png"))
	assert.Equal(t, "other.png", reg.Resolve("other.png"))

	store := NewFileStore(dir, dir, reg)
	threshold, region := store.Override("nearby_tab")
	assert.Equal(t, 0.9, threshold)
	require.NotNil(t, region)
	assert.Equal(t, image.Rect(0, 290, 150, 370), *region)

	require.NoError(t, store.Preload())
	tpl, err := store.Template("nearby_tab")
	require.NoError(t, err)
	assert.Equal(t, "nearby_tab", tpl.Name)
}

func TestRegistryRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - path: x.png\n"), 0644))
	assert.Error(t, NewRegistry().LoadFromFile(path))

	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - name: x\n    threshold: 1.5\n"), 0644))
	assert.Error(t, NewRegistry().LoadFromFile(path))

	assert.Error(t, NewRegistry().Register(Definition{}))
}

func TestHealthBarConfigRoundTripAndFallback(t *testing.T) {
	store := NewFileStore(t.TempDir(), t.TempDir(), nil)

	assert.Equal(t, cv.DefaultHealthBarConfig(), store.HealthBarConfig(cv.TargetPlayer))

	boss := cv.DefaultHealthBarConfig()
	boss.X, boss.Y, boss.Width, boss.Height = 300, 10, 200, 14
	require.NoError(t, store.SaveHealthBarConfig(cv.TargetBoss, boss))

	loaded, err := store.LoadHealthBarConfig(cv.TargetBoss)
	require.NoError(t, err)
	assert.Equal(t, boss, loaded)
	assert.Equal(t, cv.DefaultHealthBarConfig(), store.HealthBarConfig(cv.TargetPlayer), "kinds are stored apart")

	bad := boss
	bad.Width = 0
	assert.Error(t, store.SaveHealthBarConfig(cv.TargetPlayer, bad))
	assert.Error(t, store.SaveHealthBarConfig("npc", boss))
}

func TestHealthBarConfigInvalidFileFallsBack(t *testing.T) {
	cfgDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "hp_bar_config.yaml"), []byte("width: 0\nheight: 0\n"), 0644))

	store := NewFileStore(t.TempDir(), cfgDir, nil)
	_, err := store.LoadHealthBarConfig(cv.TargetPlayer)
	assert.Error(t, err)
	assert.Equal(t, cv.DefaultHealthBarConfig(), store.HealthBarConfig(cv.TargetPlayer))
}

package emulator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jordanella.com/pk-hunter/internal/adb"
)

type fakeLister struct {
	devices []adb.DeviceInfo
	err     error
}

func (f *fakeLister) ListDevices(context.Context) ([]adb.DeviceInfo, error) {
	return f.devices, f.err
}

func (f *fakeLister) WindowSize(_ context.Context, serial string) (int, int, error) {
	if serial == "emulator-5554" {
		return 960, 540, nil
	}
	return 0, 0, errors.New("no size")
}

func TestParseList2(t *testing.T) {
	out := "0,Hunter A,1234,5678,1,5565,8765\n1,Hunter B,0,0,0,-1,-1\nbroken line\n2,,0,0,0,1,1\n3,Hunter D,0,0,1,n/a,0\n"
	titles := parseList2(out)

	assert.Equal(t, "Hunter A", titles["emulator-5554"])
	assert.Equal(t, "Hunter A", titles["127.0.0.1:5555"])
	assert.Equal(t, "Hunter A", titles["127.0.0.1:5565"], "sixth column is the adb port")
	assert.Equal(t, "Hunter B", titles["emulator-5556"])
	assert.NotContains(t, titles, "emulator-5558")
	assert.NotContains(t, titles, "emulator-5560", "unparsable adb port skips the instance")
}

func TestRefreshKeepsSelectionAndDropsVanished(t *testing.T) {
	lister := &fakeLister{devices: []adb.DeviceInfo{
		{Serial: "emulator-5554", State: "device"},
		{Serial: "emulator-5556", State: "device"},
		{Serial: "emulator-5558", State: "offline"},
	}}
	titles := func(context.Context) (map[string]string, error) {
		return map[string]string{"emulator-5554": "Hunter A"}, nil
	}
	m := NewManager(lister, titles, ModeHybrid)

	devices, err := m.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Hunter A", devices[0].Title)
	assert.Equal(t, 960, devices[0].Width)
	assert.Equal(t, "emulator-5556", devices[1].Title)
	assert.Equal(t, ModeHybrid, devices[1].Mode)

	require.NoError(t, m.Select("emulator-5554", true))
	require.NoError(t, m.SetMode("emulator-5554", ModeAuto))
	assert.Error(t, m.Select("missing", true))

	lister.devices = lister.devices[:1]
	devices, err = m.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.True(t, devices[0].Selected)
	assert.Equal(t, ModeAuto, devices[0].Mode)
	assert.Len(t, m.Selected(), 1)

	_, ok := m.Get("emulator-5556")
	assert.False(t, ok)
}

func TestRefreshError(t *testing.T) {
	m := NewManager(&fakeLister{err: errors.New("server down")}, nil, "")
	_, err := m.Refresh(context.Background())
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" PK ")
	require.NoError(t, err)
	assert.Equal(t, ModePK, m)
	_, err = ParseMode("farm")
	assert.Error(t, err)
}

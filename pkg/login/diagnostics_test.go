package login

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	at := time.Unix(1700000000, 0)

	tests := []struct {
		email string
		want  string
	}{
		{"a@x.com", "error_a_x.com_1700000000.png"},
		{"../etc/passwd@x.com", "error_.._etc_passwd_x.com_1700000000.png"},
		{`a\b:c d@x.com`, "error_a_b_c_d_x.com_1700000000.png"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			name := ArtifactName(tt.email, at)
			assert.Equal(t, tt.want, name)
			assert.Equal(t, name, filepath.Base(name), "name must not contain path separators")
		})
	}
}

func TestDiagnosticsCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	d := NewDiagnostics(dir, nil)
	d.now = func() time.Time { return time.Unix(1700000000, 0) }

	page := &fakePage{}
	artifact, err := d.Capture(page, "a@x.com", 2)
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", artifact.AccountEmail)
	assert.Equal(t, 2, artifact.Attempt)
	assert.Equal(t, filepath.Join(dir, "error_a_x.com_1700000000.png"), artifact.Path)
	_, statErr := os.Stat(artifact.Path)
	assert.NoError(t, statErr)
}

func TestDiagnosticsCaptureErrors(t *testing.T) {
	d := NewDiagnostics(t.TempDir(), nil)

	_, err := d.Capture(nil, "a@x.com", 0)
	assert.Error(t, err)

	_, err = d.Capture(&fakePage{screenshotErr: errors.New("target closed")}, "a@x.com", 0)
	assert.ErrorContains(t, err, "target closed")
}

func TestExtractAlerts(t *testing.T) {
	query := `.alert-danger, .error, [role="alert"]`

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "no banners",
			content: `<form><input type="email"></form>`,
		},
		{
			name:    "collapses whitespace",
			content: `<div class="alert-danger">  Wrong
				password  </div>`,
			want: []string{"Wrong password"},
		},
		{
			name:    "deduplicates and skips empty",
			content: `<p class="error">Locked</p><p role="alert">Locked</p><span class="error"> </span>`,
			want:    []string{"Locked"},
		},
		{
			name:    "caps the number of alerts",
			content: `<p class="error">1</p><p class="error">2</p><p class="error">3</p><p class="error">4</p>`,
			want:    []string{"1", "2", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAlerts(tt.content, query))
		})
	}
}

func TestAlertsWithoutSelectors(t *testing.T) {
	d := NewDiagnostics("", nil)
	assert.Nil(t, d.Alerts(&fakePage{content: `<p class="error">x</p>`}))
	assert.Nil(t, d.Alerts(nil))
}

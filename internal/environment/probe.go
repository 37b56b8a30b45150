package environment

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/formicula/backend/internal/cachedir"
	"github.com/formicula/backend/internal/captcha"
)

// SystemProbe inspects the real process environment.
type SystemProbe struct {
	SMTPAddr string
	Encoders []captcha.Encoder
}

var _ Probe = (*SystemProbe)(nil)

// NewSystemProbe returns a probe using the default captcha encoders.
func NewSystemProbe(smtpAddr string) *SystemProbe {
	return &SystemProbe{SMTPAddr: smtpAddr, Encoders: captcha.DefaultEncoders}
}

// MailAvailable reports whether an SMTP relay is configured.
func (p *SystemProbe) MailAvailable(context.Context) bool {
	return strings.TrimSpace(p.SMTPAddr) != ""
}

// ImageEncoderAvailable reports whether any encoder can write a 1x1 image.
func (p *SystemProbe) ImageEncoderAvailable() bool {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	for _, enc := range p.Encoders {
		if enc.Encode(io.Discard, img) == nil {
			return true
		}
	}
	return false
}

// DirWritable reports whether dir exists and a file can be created in it.
func (p *SystemProbe) DirWritable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	err = errors.Join(f.Close(), os.Remove(name))
	return err == nil
}

// FileExists reports whether path exists.
func (p *SystemProbe) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func markerPath(dir string) string {
	return filepath.Join(dir, cachedir.MarkerName)
}

package preview

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeSource struct {
	img *image.RGBA
	err error
}

func (f fakeSource) Snapshot() (*image.RGBA, error) { return f.img, f.err }

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestWriteOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "preview.png")
	want := color.RGBA{R: 0x90, G: 0x1e, B: 0xb6, A: 0xff}
	w := NewWriter(path, fakeSource{img: solid(want)})

	if err := w.WriteOnce(); err != nil {
		t.Fatalf("WriteOnce: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("bounds = %v", b)
	}
	if got := color.RGBAModel.Convert(img.At(2, 1)); got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestWriteOnceErrors(t *testing.T) {
	if err := NewWriter("", fakeSource{img: solid(color.RGBA{})}).WriteOnce(); err == nil {
		t.Error("empty path should fail")
	}

	path := filepath.Join(t.TempDir(), "preview.png")
	boom := errors.New("boom")
	err := NewWriter(path, fakeSource{err: boom}).WriteOnce()
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("file written despite snapshot error: %v", statErr)
	}
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "p.png"), fakeSource{img: solid(color.RGBA{})})
	if err := Schedule(context.Background(), "every so often", w); err == nil {
		t.Error("bad spec should fail")
	}
}

func TestScheduleWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.png")
	w := NewWriter(path, fakeSource{img: solid(color.RGBA{A: 0xff})})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := Schedule(ctx, "@every 1s", w); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("no snapshot written within 5s")
}

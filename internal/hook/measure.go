package hook

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// Measurer reports the advance width of text at a font size in pixels
type Measurer interface {
	Measure(text string, size float64) (float64, error)
}

// FaceMeasurer measures with an OpenType font, caching one face per size
type FaceMeasurer struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFaceMeasurer parses a TTF/OTF file. An empty path uses the embedded Go Bold face.
func NewFaceMeasurer(path string) (*FaceMeasurer, error) {
	data := gobold.TTF
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read font %s", path)
		}
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse font")
	}

	return &FaceMeasurer{
		font:  f,
		faces: make(map[float64]font.Face),
	}, nil
}

func (m *FaceMeasurer) Measure(text string, size float64) (float64, error) {
	face, err := m.face(size)
	if err != nil {
		return 0, err
	}
	adv := font.MeasureString(face, text)
	return float64(adv) / 64, nil
}

func (m *FaceMeasurer) face(size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create face at size %v", size)
	}
	m.faces[size] = f
	return f, nil
}

// Close releases cached faces
func (m *FaceMeasurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for size, f := range m.faces {
		f.Close()
		delete(m.faces, size)
	}
	return nil
}

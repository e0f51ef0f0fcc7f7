package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/car-studio/internal/utils"
	"github.com/menta2k/car-studio/pkg/types"
)

// Descriptor lists the items of one batch. It is read from YAML or JSON:
//
//	items:
//	  - car: cars/01.jpg
//	    mask: masks/01.png
//	    floor: studio/floor.png
//	    wall: studio/wall.png
type Descriptor struct {
	Items []types.Item `yaml:"items" json:"items"`
}

// LoadDescriptor reads a descriptor file. Relative paths are resolved
// against the directory holding the file.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read descriptor: %v", types.ErrIO, err)
	}
	return ParseDescriptor(data, filepath.Dir(path))
}

// ParseDescriptor decodes descriptor data, resolving relative paths
// against baseDir
func ParseDescriptor(data []byte, baseDir string) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: parse descriptor: %v", types.ErrInvalidParameter, err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) || baseDir == "" {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	for i := range d.Items {
		it := &d.Items[i]
		it.Car = resolve(it.Car)
		it.Mask = resolve(it.Mask)
		it.Floor = resolve(it.Floor)
		it.Wall = resolve(it.Wall)
		it.ShadowMask = resolve(it.ShadowMask)
	}
	return &d, nil
}

// Validate reports every item with a missing required path, a path that
// is not an image file, or an output name already used by another item.
// Files are not opened here: an unreadable input fails only its own item
// when the batch runs.
func (d *Descriptor) Validate() error {
	if len(d.Items) == 0 {
		return fmt.Errorf("%w: descriptor has no items", types.ErrInvalidParameter)
	}

	var errs []error
	seen := make(map[string]int, len(d.Items))
	for i, it := range d.Items {
		fields := []struct {
			name, path string
		}{
			{"car", it.Car},
			{"mask", it.Mask},
			{"floor", it.Floor},
			{"wall", it.Wall},
		}
		for _, f := range fields {
			switch {
			case f.path == "":
				errs = append(errs, fmt.Errorf("%w: item %d: %s is required", types.ErrInvalidParameter, i, f.name))
			case !utils.IsImageFile(f.path):
				errs = append(errs, fmt.Errorf("%w: item %d: %s %q is not an image file", types.ErrInvalidParameter, i, f.name, f.path))
			}
		}

		if it.Car == "" {
			continue
		}
		if j, dup := seen[it.Name()]; dup {
			errs = append(errs, fmt.Errorf("%w: item %d: output name %q already used by item %d",
				types.ErrInvalidParameter, i, it.Name(), j))
			continue
		}
		seen[it.Name()] = i
	}
	return errors.Join(errs...)
}

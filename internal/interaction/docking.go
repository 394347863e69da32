// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package interaction

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/internal/container"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// DockRequest describes one protein-toxin pair sent to a docking tool.
type DockRequest struct {
	Protein    string                     `json:"protein"`
	Sequence   string                     `json:"sequence,omitempty"`
	Toxin      string                     `json:"toxin"`
	SMILES     string                     `json:"smiles,omitempty"`
	Conditions types.ProcessingConditions `json:"conditions"`
}

// Pose is one docked conformation.
type Pose struct {
	// Affinity is in kcal/mol.
	Affinity float64 `json:"affinity"`

	// Confidence is the tool's own pose score in [0, 1].
	Confidence float64 `json:"confidence"`

	// Site names the pocket, when the tool reports one.
	Site string `json:"site,omitempty"`

	// Type is the dominant contact type (hydrophobic, electrostatic,
	// hydrogen_bond).
	Type string `json:"interaction_type,omitempty"`
}

// Docker estimates binding poses for a pair. Implementations wrap an
// external docking tool and are treated as opaque.
type Docker interface {
	Name() string
	Dock(ctx context.Context, req DockRequest) ([]Pose, error)
}

// NewDocker builds the docking backend selected by cfg. It returns nil for
// DockingNone. A container backend with no usable runtime is returned as an
// unavailable docker so the stage can record the reason per pair.
func NewDocker(ctx context.Context, cfg types.InteractionConfig) Docker {
	if cfg.Docking != types.DockingContainer {
		return nil
	}
	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		return Unavailable(string(types.DockingContainer), err)
	}
	return checkedContainerDocker(ctx, rt, cfg.Image)
}

// checkedContainerDocker confirms the image once. A missing image yields an
// unavailable docker rather than a failed docking call per pair.
func checkedContainerDocker(ctx context.Context, rt container.Runtime, image string) Docker {
	name := string(types.DockingContainer)
	if image == "" {
		return Unavailable(name, errors.New("no docking image configured"))
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return Unavailable(name, err)
	}
	return NewContainerDocker(rt, image)
}

// ContainerDocker runs a docking image that reads a JSON DockRequest on
// stdin and writes {"poses": [...]} on stdout.
type ContainerDocker struct {
	runtime container.Runtime
	image   string
}

// NewContainerDocker returns a docker that runs image on rt.
func NewContainerDocker(rt container.Runtime, image string) *ContainerDocker {
	return &ContainerDocker{runtime: rt, image: image}
}

// Name implements Docker.
func (d *ContainerDocker) Name() string { return string(types.DockingContainer) }

// Dock implements Docker.
func (d *ContainerDocker) Dock(ctx context.Context, req DockRequest) ([]Pose, error) {
	if d.image == "" {
		return nil, errors.Wrap(types.ErrToolUnavailable, "no docking image configured")
	}
	in, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encoding docking request")
	}
	var out bytes.Buffer
	if err := d.runtime.Run(ctx, d.image, nil, bytes.NewReader(in), &out); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "docking %s to %s", req.Toxin, req.Protein), types.ErrToolUnavailable)
	}

	var resp struct {
		Poses []Pose `json:"poses"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding docking output"), types.ErrToolUnavailable)
	}
	if len(resp.Poses) == 0 {
		return nil, errors.Mark(errors.Newf("docking %s to %s returned no poses", req.Toxin, req.Protein), types.ErrToolUnavailable)
	}
	return resp.Poses, nil
}

type unavailable struct {
	name string
	err  error
}

// Unavailable returns a docker that fails every call with err.
func Unavailable(name string, err error) Docker {
	return unavailable{name: name, err: err}
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) Dock(context.Context, DockRequest) ([]Pose, error) {
	return nil, errors.Mark(u.err, types.ErrToolUnavailable)
}

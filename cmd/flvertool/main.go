// flvertool is a CLI utility for inspecting FLVER2 model files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/flverkit/internal/config"
	"github.com/Faultbox/flverkit/internal/logger"
	"github.com/Faultbox/flverkit/pkg/flver"
)

// usageError carries the usage line of a command invoked with bad arguments.
type usageError string

func (e usageError) Error() string { return "usage: flvertool " + string(e) }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	command := args[0]
	args = args[1:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args, stdout)
	case "layouts":
		err = cmdLayouts(args, stdout)
	case "vertices", "verts":
		err = cmdVertices(args, stdout)
	case "config":
		err = cmdConfig(args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 2
	}
	defer logger.Sync()

	if err != nil {
		var uerr usageError
		switch {
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.As(err, &uerr):
			fmt.Fprintf(stderr, "Usage: flvertool %s\n", string(uerr))
			return 2
		}
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `flvertool - FLVER2 model inspection utility

Usage:
  flvertool <command> [options] <file.flver>

Commands:
  info <file.flver>              Show header and pool summary
  layouts <file.flver>           List buffer layouts and their members
  vertices [-n N] <file.flver>   Print the first N vertices of each mesh
  config [-o path] [-save]       Print or save the effective configuration

Options (all commands):
  -config <path>          Config file (default ./flvertool.yaml or user config dir)
  -debug                  Enable debug logging
  -permissive             Warn on unknown constants instead of failing
  -tangent-mode <mode>    Tangent arithmetic: source or normalized
  -accept-version <ver>   Accept a container version, e.g. 0x20014 (repeatable)

Examples:
  flvertool info c0000.flver
  flvertool vertices -n 3 -tangent-mode normalized c0000.flver
  flvertool layouts -permissive -accept-version 0x20014 o1234.flver`)
}

// setup loads config and logging for a command whose flags are already parsed.
func setup(f *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(f)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openModel parses flags, applies config and decodes the file named by the
// single positional argument.
func openModel(fs *flag.FlagSet, args []string, usage string) (*flver.Model, string, error) {
	f := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if fs.NArg() != 1 {
		return nil, "", usageError(usage)
	}
	path := fs.Arg(0)

	cfg, err := setup(f)
	if err != nil {
		return nil, "", err
	}
	opts, err := cfg.Options(logger.Named("flver").With(zap.String("file", path)))
	if err != nil {
		return nil, "", err
	}

	logger.Debug("decoding model", zap.String("file", path), zap.Bool("permissive", opts.Permissive))
	model, err := flver.ParseFile(path, opts)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	logger.Sugar.Debugf("decoded %s: %d meshes, %d vertices", path, len(model.Meshes), model.TotalVertexCount())
	return model, path, nil
}

func cmdInfo(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	model, path, err := openModel(fs, args, "info [options] <file.flver>")
	if err != nil {
		return err
	}

	h := &model.Header
	fmt.Fprintf(w, "File:        %s\n", path)
	fmt.Fprintf(w, "Version:     %s\n", h.Version)
	fmt.Fprintf(w, "Endianness:  %s\n", h.Endianness)
	fmt.Fprintf(w, "Data:        offset 0x%X, %d bytes\n", h.DataOffset, h.DataSize)
	fmt.Fprintf(w, "Bounds:      %v .. %v\n", h.BoundingBox.Min, h.BoundingBox.Max)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-15s %d\n", "Dummies", len(model.Dummies))
	fmt.Fprintf(w, "  %-15s %d\n", "Materials", len(model.Materials))
	fmt.Fprintf(w, "  %-15s %d\n", "Bones", len(model.Bones))
	fmt.Fprintf(w, "  %-15s %d\n", "Meshes", len(model.Meshes))
	fmt.Fprintf(w, "  %-15s %d\n", "Face sets", len(model.FaceSets))
	fmt.Fprintf(w, "  %-15s %d\n", "Vertex buffers", len(model.VertexBuffers))
	fmt.Fprintf(w, "  %-15s %d\n", "Buffer layouts", len(model.BufferLayouts))
	fmt.Fprintf(w, "  %-15s %d\n", "Textures", len(model.Textures))
	fmt.Fprintf(w, "  %-15s %d\n", "Vertices", model.TotalVertexCount())
	fmt.Fprintf(w, "  %-15s %d\n", "Indices", model.TotalIndexCount())

	if len(model.Meshes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Meshes:")
	}
	for i := range model.Meshes {
		mesh := &model.Meshes[i]
		material := "(none)"
		if mat := model.MeshMaterial(mesh); mat != nil {
			material = mat.Name
		}

		vertices, triangles := 0, 0
		for _, vb := range mesh.VertexBuffers {
			vertices += len(vb.Vertices)
		}
		for _, faceSet := range mesh.FaceSets {
			triangles += len(faceSet.Triangles())
		}
		fmt.Fprintf(w, "  [%d] material=%q bones=%d facesets=%d buffers=%d vertices=%d triangles=%d\n",
			i, material, len(mesh.BoneIndices), len(mesh.FaceSets), len(mesh.VertexBuffers), vertices, triangles)
	}
	return nil
}

func cmdLayouts(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("layouts", flag.ContinueOnError)
	model, _, err := openModel(fs, args, "layouts [options] <file.flver>")
	if err != nil {
		return err
	}

	for i := range model.BufferLayouts {
		layout := &model.BufferLayouts[i]
		size, err := layout.Size()
		if err != nil {
			fmt.Fprintf(w, "Layout %d: %d members, size unknown (%v)\n", i, len(layout.Members), err)
		} else {
			fmt.Fprintf(w, "Layout %d: %d members, %d bytes\n", i, len(layout.Members), size)
		}

		for _, m := range layout.Members {
			memberSize, err := m.Size()
			sizeText := fmt.Sprintf("%d", memberSize)
			if err != nil {
				sizeText = "?"
			}
			fmt.Fprintf(w, "  +%-4d %-16s %-15s index=%d size=%s\n",
				m.StructOffset, m.Type, m.Semantic, m.Index, sizeText)
		}
	}
	return nil
}

func cmdVertices(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("vertices", flag.ContinueOnError)
	limit := fs.Int("n", 5, "Vertices to print per buffer (0 = all)")
	model, _, err := openModel(fs, args, "vertices [-n N] [options] <file.flver>")
	if err != nil {
		return err
	}

	for i := range model.Meshes {
		mesh := &model.Meshes[i]
		for j, vb := range mesh.VertexBuffers {
			fmt.Fprintf(w, "Mesh %d buffer %d (layout %d, stride %d, %d vertices)\n",
				i, j, vb.LayoutIndex, vb.Stride, len(vb.Vertices))

			n := len(vb.Vertices)
			if *limit > 0 && *limit < n {
				n = *limit
			}
			for k := 0; k < n; k++ {
				fmt.Fprintf(w, "  %d: %s\n", k, formatVertex(&vb.Vertices[k]))
			}
		}
	}
	return nil
}

func cmdConfig(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	out := fs.String("o", "", "Write the configuration to this path")
	save := fs.Bool("save", false, "Write the configuration to the user config directory")
	f := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return usageError("config [-o path] [-save] [options]")
	}

	cfg, err := setup(f)
	if err != nil {
		return err
	}
	// Validate before printing or saving
	if _, err := cfg.Options(nil); err != nil {
		return err
	}

	switch {
	case *out != "":
		if err := cfg.SaveTo(*out); err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved: %s\n", *out)
	case *save:
		path, err := cfg.Save()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved: %s\n", path)
	default:
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return nil
}

// formatVertex renders the populated attributes of a vertex on one line.
func formatVertex(v *flver.Vertex) string {
	var parts []string
	if v.Position != nil {
		parts = append(parts, fmt.Sprintf("pos=%v", *v.Position))
	}
	for i, n := range v.Normals {
		parts = append(parts, fmt.Sprintf("normal%d=%v", i, n))
	}
	for i, t := range v.Tangents {
		parts = append(parts, fmt.Sprintf("tangent%d=%v", i, t))
	}
	for i, uv := range v.UVs {
		parts = append(parts, fmt.Sprintf("uv%d=%v", i, uv))
	}
	for i, c := range v.Colors {
		parts = append(parts, fmt.Sprintf("color%d=%v", i, c))
	}
	if v.BoneWeights != nil {
		parts = append(parts, fmt.Sprintf("weights=%v", *v.BoneWeights))
	}
	if v.BoneIndices != nil {
		parts = append(parts, fmt.Sprintf("bones=%v", *v.BoneIndices))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

// skintool is a CLI utility for checking skin definitions and model assets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/Faultbox/eyewear-configurator/internal/asset"
	"github.com/Faultbox/eyewear-configurator/internal/config"
	"github.com/Faultbox/eyewear-configurator/internal/skin"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "list", "ls":
		err = cmdList(os.Stdout, args)
	case "validate", "check":
		err = cmdValidate(os.Stdout, args)
	case "show":
		err = cmdShow(os.Stdout, args)
	case "inspect":
		err = cmdInspect(os.Stdout, args)
	case "init-config":
		err = cmdInitConfig(os.Stdout, args)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `skintool - eyewear skin and model utility

Usage:
  skintool <command> [options]

Commands:
  list [-dir skins]                  List skins in display order
  validate [-dir skins]              Report every invalid skin definition
  show [-dir skins] <name>           Print one skin
  inspect <model.glb>                Show meshes, roles and cameras of a model
  init-config [path]                 Write the default configurator.yaml

Without -dir the built-in catalog is used.

Examples:
  skintool list
  skintool validate -dir ./skins
  skintool show "Clear_Sapphire"
  skintool inspect assets/models/Standard_Wayfarer.glb`)
}

// openStore loads dir, or the built-in catalog when dir is empty. The store
// may be usable even when err is set.
func openStore(dir string) (*skin.Store, error) {
	if dir == "" {
		return skin.Catalog()
	}
	return skin.Load(os.DirFS(dir), ".")
}

func cmdList(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	dir := fs.String("dir", "", "Skins directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*dir)
	if store == nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tLABEL\tMODEL\tLENS DEMO")
	for i, cfg := range store.List() {
		demo := "-"
		if cfg.Glass.Animate {
			demo = cfg.Glass.AnimateCamera
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, cfg.Name, cfg.Label, cfg.ModelPath, demo)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(w, "\nsome skins were skipped, run validate for details\n")
	}
	return nil
}

func cmdValidate(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	dir := fs.String("dir", "", "Skins directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*dir)
	if store != nil {
		fmt.Fprintf(w, "%d valid skin(s)\n", store.Len())
	}
	if err == nil {
		return nil
	}

	problems := unwrapAll(err)
	for _, p := range problems {
		var verr *skin.ValidationError
		if errors.As(p, &verr) {
			fmt.Fprintf(w, "\n%s (%s):\n", verr.Name, verr.Source)
			for _, msg := range verr.Problems {
				fmt.Fprintf(w, "  - %s\n", msg)
			}
			continue
		}
		fmt.Fprintf(w, "\n%v\n", p)
	}
	return fmt.Errorf("%d problem(s) found", len(problems))
}

// unwrapAll flattens errors.Join trees.
func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, unwrapAll(e)...)
		}
		return out
	}
	return []error{err}
}

func cmdShow(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	dir := fs.String("dir", "", "Skins directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: skintool show [-dir skins] <name>")
	}

	store, err := openStore(*dir)
	if store == nil {
		return err
	}
	cfg, ok := store.Get(fs.Arg(0))
	if !ok {
		return fmt.Errorf("skin %q not found", fs.Arg(0))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(k string, v any) { fmt.Fprintf(tw, "%s\t%v\n", k, v) }
	row("name", cfg.Name)
	row("label", cfg.Label)
	row("source", cfg.Source)
	row("model", cfg.ModelPath)
	row("start camera", cfg.StartCamera)
	row("free camera", cfg.FreeCamera)
	row("frame color", cfg.Frame.BaseColor)
	row("frame roughness", cfg.Frame.Roughness)
	row("frame metalness", cfg.Frame.Metalness)
	row("frame translucent", cfg.Frame.Translucent)
	if cfg.Frame.Opacity != nil {
		row("frame opacity", *cfg.Frame.Opacity)
	}
	if cfg.Frame.Reflectivity != nil {
		row("frame reflectivity", *cfg.Frame.Reflectivity)
	}
	row("arms overlay", cfg.ArmsText.OverlayPath)
	row("arms text color", cfg.ArmsText.Color)
	row("glass color", cfg.Glass.Color)
	row("glass roughness", cfg.Glass.Roughness)
	row("glass metalness", cfg.Glass.Metalness)
	row("glass opacity", cfg.Glass.Opacity)
	row("glass gradient", cfg.Glass.Gradient)
	if cfg.Glass.OpacityMapPath != "" {
		row("glass opacity map", cfg.Glass.OpacityMapPath)
	}
	if cfg.Glass.Animate {
		row("lens demo camera", cfg.Glass.AnimateCamera)
	}
	if cfg.FakeInterior != nil {
		row("fake interior", cfg.FakeInterior.TexturePath)
	}
	row("logo", cfg.Logo.TexturePath)
	row("logo emissive", cfg.Logo.EmissiveIntensity)
	return tw.Flush()
}

func cmdInspect(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: skintool inspect <model.glb>")
	}

	path := fs.Arg(0)
	// Geometry and cameras only; image references are not resolved.
	loader := asset.NewLoader(os.DirFS(filepath.Dir(path)), nil, nil)
	a, err := loader.Load(context.Background(), filepath.Base(path))
	if err != nil {
		return err
	}
	a.Classify(asset.DefaultClassifier{})

	size := a.Bounds.Size()
	fmt.Fprintf(w, "Model:   %s\n", path)
	fmt.Fprintf(w, "Meshes:  %d\n", len(a.Meshes))
	fmt.Fprintf(w, "Bounds:  %.3f x %.3f x %.3f\n\n", size.X(), size.Y(), size.Z())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MESH\tMATERIAL\tROLE\tTRIANGLES")
	for _, m := range a.Meshes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.Name, m.MaterialName, m.Role, len(m.Indices)/3)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := a.RoleCounts()
	roles := make([]asset.Role, 0, len(counts))
	for r := range counts {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	fmt.Fprintln(w, "\nRoles:")
	for _, r := range roles {
		fmt.Fprintf(w, "  %-14s %d\n", r, counts[r])
	}

	fmt.Fprintln(w, "\nCameras:")
	for _, name := range a.CameraNames() {
		c := a.Cameras[name]
		fmt.Fprintf(w, "  %-14s pos (%.3f, %.3f, %.3f)  fov %.1f\n",
			name, c.Position.X(), c.Position.Y(), c.Position.Z(), c.FOV)
	}
	return nil
}

func cmdInitConfig(w io.Writer, args []string) error {
	path := "configurator.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Default().SaveTo(path); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", path)
	return nil
}

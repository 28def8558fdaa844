package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/college-bus-booking/internal/ledger"
	"github.com/iliyamo/college-bus-booking/internal/model"
	"github.com/iliyamo/college-bus-booking/internal/seating"
)

//go:embed deployments/*.yaml
var builtinDeployments embed.FS

// ErrUnknownDeployment is returned when no built-in profile has the
// requested name.
var ErrUnknownDeployment = errors.New("unknown deployment")

// Deployment is one bus configuration: its row layout and its capacity
// table.  Every variant is data; the booking engine is the same for all.
type Deployment struct {
	Name     string
	Layout   seating.Layout
	Capacity ledger.Table
}

// deploymentFile mirrors the YAML profile format.
type deploymentFile struct {
	Name   string `yaml:"name"`
	Layout struct {
		// Capacity with Left/Middle/Right builds rows by formula.  When
		// Rows is set it is used instead and Capacity, if given, must match.
		Capacity          int           `yaml:"capacity"`
		Left              int           `yaml:"left"`
		Middle            int           `yaml:"middle"`
		Right             int           `yaml:"right"`
		FrontSeats        int           `yaml:"front_seats"`
		RestrictedFromRow string        `yaml:"restricted_from_row"`
		Rows              []seating.Row `yaml:"rows"`
	} `yaml:"layout"`
	Capacity []struct {
		Sport  string `yaml:"sport"`
		Gender string `yaml:"gender"`
		Max    int    `yaml:"max"`
	} `yaml:"capacity"`
}

// ParseDeployment decodes and validates a YAML profile.
func ParseDeployment(data []byte) (Deployment, error) {
	var f deploymentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Deployment{}, fmt.Errorf("parse deployment: %w", err)
	}
	if strings.TrimSpace(f.Name) == "" {
		return Deployment{}, errors.New("deployment: name is required")
	}

	var (
		layout seating.Layout
		err    error
	)
	if len(f.Layout.Rows) > 0 {
		layout, err = seating.Explicit(f.Layout.Rows, f.Layout.Capacity)
	} else {
		layout, err = seating.Formulaic(f.Layout.Capacity, f.Layout.Left, f.Layout.Middle, f.Layout.Right)
	}
	if err != nil {
		return Deployment{}, fmt.Errorf("deployment %s: %w", f.Name, err)
	}
	layout.FrontSeats = f.Layout.FrontSeats
	layout.RestrictedFromRow = f.Layout.RestrictedFromRow
	if err := layout.Validate(); err != nil {
		return Deployment{}, fmt.Errorf("deployment %s: %w", f.Name, err)
	}

	limits := make([]ledger.Limit, 0, len(f.Capacity))
	for _, c := range f.Capacity {
		sport, ok := model.ParseSport(c.Sport)
		if !ok {
			return Deployment{}, fmt.Errorf("deployment %s: %w: unknown sport %q", f.Name, ledger.ErrInvalidTable, c.Sport)
		}
		limits = append(limits, ledger.Limit{
			Bucket: ledger.Bucket{Sport: sport, Gender: ledger.GenderBucket(strings.ToLower(c.Gender))},
			Max:    c.Max,
		})
	}
	table, err := ledger.NewTable(limits)
	if err != nil {
		return Deployment{}, fmt.Errorf("deployment %s: %w", f.Name, err)
	}
	return Deployment{Name: f.Name, Layout: layout, Capacity: table}, nil
}

// LoadDeployment returns the built-in profile called name.
func LoadDeployment(name string) (Deployment, error) {
	data, err := builtinDeployments.ReadFile("deployments/" + name + ".yaml")
	if err != nil {
		return Deployment{}, fmt.Errorf("%w %q (have %s)", ErrUnknownDeployment, name, strings.Join(DeploymentNames(), ", "))
	}
	return ParseDeployment(data)
}

// LoadDeploymentFile reads a profile from disk.
func LoadDeploymentFile(path string) (Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Deployment{}, err
	}
	return ParseDeployment(data)
}

// DeploymentNames lists the built-in profiles.
func DeploymentNames() []string {
	entries, err := builtinDeployments.ReadDir("deployments")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Command validate provides a small CLI that validates game catalog JSON
// files in a content directory. It checks:
//   - JSON structure and catalog consistency (cards, missions, links)
//   - Presence of an entry node and at least one objective per mission
//   - Reachability: every objective is reachable from the entry node
//   - Authorization ceilings: no link demands more than the highest token level
//
// Structural checks are the same ones the server runs at load time; the
// reachability and ceiling checks only matter for content authors, so they
// live here instead of in the engine.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/darkwire-games/darkwire/game/content"
	"github.com/darkwire-games/darkwire/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors carries informational lines; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// maxTokenLevel is the highest authorization a node can grant, so any link
// demanding more than this can never be traversed.
const maxTokenLevel = 3

// validateCatalogFile loads and validates a single catalog JSON file. It
// runs the server's structural checks, then reachability and ceiling
// analysis per mission.
func validateCatalogFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	catalog, err := content.Parse(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	objectives := 0
	for _, spec := range catalog.Missions {
		missionResult := validateMission(spec)
		if !missionResult.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, missionResult.Errors...)
		for _, ns := range spec.Nodes {
			if ns.Flags&engine.FlagObjective != 0 {
				objectives++
			}
		}
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Cards: %d", len(catalog.Cards)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Missions: %d", len(catalog.Missions)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Objectives: %d", objectives))
	}

	return result
}

// validateMission checks one mission graph beyond the structural pass:
// entry flag placement, objective presence, link ceilings, and that a
// flood fill from the entry reaches every objective.
func validateMission(spec *engine.MissionSpec) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	nodes := make(map[uint32]*engine.NodeSpec, len(spec.Nodes))
	var objectives []uint32
	for i := range spec.Nodes {
		ns := &spec.Nodes[i]
		nodes[ns.ID] = ns
		if ns.Flags&engine.FlagObjective != 0 {
			objectives = append(objectives, ns.ID)
		}
		if ns.Flags&engine.FlagEntry != 0 && ns.ID != spec.Entry {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Mission %q: node %d carries the entry flag but entry is %d", spec.Name, ns.ID, spec.Entry))
		}
		for _, l := range ns.Links {
			if l.MinLevel > maxTokenLevel {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Mission %q: link %d->%d demands level %d, above the token ceiling %d", spec.Name, ns.ID, l.To, l.MinLevel, maxTokenLevel))
			}
		}
	}

	if len(objectives) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Mission %q: no objective node", spec.Name))
		return result
	}

	// Flood fill from the entry over links, ignoring authorization levels.
	visited := map[uint32]bool{}
	queue := []uint32{spec.Entry}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		ns, ok := nodes[id]
		if !ok {
			continue
		}
		for _, l := range ns.Links {
			if !visited[uint32(l.To)] {
				queue = append(queue, uint32(l.To))
			}
		}
	}

	unreachable := 0
	for _, id := range objectives {
		if !visited[id] {
			unreachable++
			result.Errors = append(result.Errors, fmt.Sprintf("Mission %q: objective %d unreachable from entry %d", spec.Name, id, spec.Entry))
		}
	}
	if unreachable > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Mission %q: %d/%d objectives unreachable", spec.Name, unreachable, len(objectives)))
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Mission %q: all %d objectives reachable", spec.Name, len(objectives)))
	}

	return result
}

// main scans the content directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	contentDir := "../content"
	if len(os.Args) > 1 {
		contentDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(contentDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding catalog files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No catalog files under %s\n", contentDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateCatalogFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All catalogs are valid!")
	} else {
		fmt.Println("❌ Some catalogs have errors")
		os.Exit(1)
	}
}

package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/mrsinham/hangforge/cmd/hangforge/wizard"
	"github.com/mrsinham/hangforge/internal/displayset"
	"github.com/mrsinham/hangforge/internal/hanging"
	"github.com/mrsinham/hangforge/internal/hanging/attribute"
	"github.com/mrsinham/hangforge/internal/hanging/engine"
	"github.com/mrsinham/hangforge/internal/hanging/match"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Check for wizard subcommand (before flag.Parse)
	if len(os.Args) > 1 && os.Args[1] == "wizard" {
		var fromConfig string
		for i, arg := range os.Args[2:] {
			if arg == "--from" && i+3 < len(os.Args) {
				fromConfig = os.Args[i+3]
			}
		}
		if err := wizard.Run(fromConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	protocolFile := flag.String("protocol", "", "Protocol file to load (.json, .yaml or .yml) (required)")
	dicomDir := flag.String("dicom", "", "Directory of DICOM files to scan for display sets")
	manifestFile := flag.String("manifest", "", "JSON display-set manifest (alternative to --dicom)")
	stageIndex := flag.Int("stage", 0, "Stage index to hang (default: 0)")
	allStages := flag.Bool("all-stages", false, "Hang every stage of the protocol in order")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	listValidators := flag.Bool("list-validators", false, "List available validator kinds")
	listAttributes := flag.Bool("list-attributes", false, "List built-in attribute names per level")

	help := flag.Bool("help", false, "Show help message")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("hangforge %s\n", version)
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	logger := log.New(os.Stderr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	validators := match.NewValidators()
	registry := attribute.NewRegistry(logger)
	matcher := match.NewMatcher(validators, registry, logger)

	if *listValidators {
		for _, name := range validators.Names() {
			fmt.Println(name)
		}
		os.Exit(0)
	}

	if *listAttributes {
		printAttributes()
		os.Exit(0)
	}

	if *protocolFile == "" {
		fmt.Fprintf(os.Stderr, "Error: --protocol is required\n")
		printUsage()
		os.Exit(1)
	}

	if *dicomDir != "" && *manifestFile != "" {
		fmt.Fprintf(os.Stderr, "Error: --dicom and --manifest are mutually exclusive\n")
		os.Exit(1)
	}

	protocol, err := hanging.LoadFile(*protocolFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading protocol: %v\n", err)
		os.Exit(1)
	}

	warnUnknownAttributes(logger, protocol, registry)

	var sets []*displayset.DisplaySet
	switch {
	case *dicomDir != "":
		scanner := displayset.NewScanner(logger)
		sets, err = scanner.ScanDirectory(*dicomDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning DICOM directory: %v\n", err)
			os.Exit(1)
		}
	case *manifestFile != "":
		sets, err = displayset.LoadManifest(*manifestFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
			os.Exit(1)
		}
	}

	eng := engine.New(matcher, logger)
	eng.SetDisplaySets(sets)
	if err := eng.SetProtocol(protocol); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *allStages {
		for {
			printAssignment(eng.Assignment())
			if !eng.NextStage() {
				break
			}
			fmt.Println()
		}
		os.Exit(0)
	}

	if !eng.SetStage(*stageIndex) {
		fmt.Fprintf(os.Stderr, "Error: protocol %q has no stage %d (stages: %d)\n",
			protocol.Name, *stageIndex, eng.NumStages())
		os.Exit(1)
	}
	printAssignment(eng.Assignment())
}

// warnUnknownAttributes flags rule attributes that are neither built-in nor
// registered custom attributes. They stay legal (they resolve to undefined at
// match time) but are usually typos, so the closest built-in is suggested.
func warnUnknownAttributes(logger *log.Logger, p *hanging.Protocol, registry *attribute.Registry) {
	seen := make(map[string]bool)
	check := func(r hanging.Rule) {
		if seen[r.Attribute] || registry.Has(r.Attribute) {
			return
		}
		seen[r.Attribute] = true
		if _, err := attribute.LookupBuiltin(r.Attribute); err != nil {
			logger.Warnf("protocol %q: %v", p.Name, err)
		}
	}

	for _, r := range p.MatchingRules {
		check(r)
	}
	for _, stage := range p.Stages {
		for _, vp := range stage.Viewports {
			for _, lr := range vp.Rules() {
				check(lr.Rule)
			}
		}
	}
}

func printAssignment(a *engine.Assignment) {
	fmt.Printf("Protocol: %s\n", a.ProtocolName)
	stageName := a.StageName
	if stageName == "" {
		stageName = fmt.Sprintf("stage %d", a.StageIndex)
	}
	fmt.Printf("Stage %d: %s (%s)\n", a.StageIndex, stageName, a.LayoutTemplateName)

	for _, slot := range a.Slots {
		if slot.DisplaySet == nil {
			fmt.Printf("  viewport %d: (empty)\n", slot.Slot)
			continue
		}
		fmt.Printf("  viewport %d: %s [score %g]\n", slot.Slot, slot.DisplaySet.Label(), slot.Detail.Score)
	}
}

func printAttributes() {
	for _, level := range attribute.AllLevels() {
		fmt.Printf("%s:\n", level)
		names := make([]string, 0)
		for _, info := range attribute.Builtins(level) {
			names = append(names, info.Name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "\nUsage:")
	fmt.Fprintln(os.Stderr, "  hangforge --protocol <FILE> [options]")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	flag.PrintDefaults()
}

func printHelp() {
	fmt.Println("hangforge")
	fmt.Println("=========")
	fmt.Println()
	fmt.Println("Hang a protocol: match display sets to viewports using rule-based scoring.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hangforge --protocol <FILE> [--dicom <DIR> | --manifest <FILE>] [options]")
	fmt.Println("  hangforge wizard [--from <FILE>]")
	fmt.Println()
	fmt.Println("Required arguments:")
	fmt.Println("  --protocol <FILE>     Protocol file (.json, .yaml or .yml)")
	fmt.Println()
	fmt.Println("Display-set sources:")
	fmt.Println("  --dicom <DIR>         Scan a directory of DICOM files (grouped by series)")
	fmt.Println("  --manifest <FILE>     Load display sets from a JSON manifest")
	fmt.Println()
	fmt.Println("Optional arguments:")
	fmt.Println("  --stage <N>           Stage index to hang (default: 0)")
	fmt.Println("  --all-stages          Hang every stage of the protocol in order")
	fmt.Println("  --verbose             Enable debug logging")
	fmt.Println("  --list-validators     List available validator kinds")
	fmt.Println("  --list-attributes     List built-in attribute names per level")
	fmt.Println("  --version             Show version")
	fmt.Println("  --help                Show this help message")
	fmt.Println()
	fmt.Println("Wizard:")
	fmt.Println("  hangforge wizard            Author a protocol file interactively")
	fmt.Println("  hangforge wizard --from <F> Prefill the wizard from an existing file")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Hang the first stage against a DICOM directory")
	fmt.Println("  hangforge --protocol chest-ct.yaml --dicom ./study")
	fmt.Println()
	fmt.Println("  # Hang every stage against a prepared manifest")
	fmt.Println("  hangforge --protocol chest-ct.json --manifest sets.json --all-stages")
	fmt.Println()
	fmt.Println("  # Inspect the matching engine surface")
	fmt.Println("  hangforge --list-validators")
	fmt.Println("  hangforge --list-attributes")
	fmt.Println()
	fmt.Println("Output:")
	fmt.Println("  One line per viewport with the matched display set and its score.")
	fmt.Println("  Empty viewports print as '(empty)'; an empty viewport is not an error.")
}

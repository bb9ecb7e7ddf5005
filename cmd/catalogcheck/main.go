// Command catalogcheck validates a fish and hat catalog file and prints a
// summary of what it contains. Without an argument it checks the embedded
// defaults. It exits 1 when the catalog does not load.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/talgya/reelworks/internal/catalog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	if len(args) > 1 {
		fmt.Fprintln(stderr, "usage: catalogcheck [catalog.yaml]")
		return 2
	}

	source := "embedded defaults"
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		source = fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(info.Size())))
	}

	store, err := catalog.LoadFile(path)
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(stderr, "%s: %s found\n", source, plural(len(verr.Issues), "issue"))
			for _, issue := range verr.Issues {
				fmt.Fprintf(stderr, "  %s\n", issue)
			}
			return 1
		}
		fmt.Fprintf(stderr, "%s: %v\n", source, err)
		return 1
	}

	fmt.Fprintf(stdout, "%s: ok\n", source)
	summarize(stdout, store)
	return 0
}

// summarize prints per-class, per-rarity and per-unlock-kind counts.
func summarize(w io.Writer, store *catalog.Store) {
	fish := store.Fish()
	hats := store.Hats()

	fmt.Fprintf(w, "%s, %s, default species %s\n",
		plural(len(fish), "species"), plural(len(hats), "hat"), store.DefaultSpecies().ID)

	var totalWeight float64
	weightByClass := make(map[catalog.Class]float64)
	countByClass := make(map[catalog.Class]int)
	kinds := make(map[catalog.PredicateKind]int)
	for _, f := range fish {
		totalWeight += f.SpawnWeight
		weightByClass[f.Class] += f.SpawnWeight
		countByClass[f.Class]++
		kinds[f.Unlock.Kind()]++
	}

	fmt.Fprintln(w, "classes:")
	for _, c := range catalog.Classes() {
		if countByClass[c] == 0 {
			continue
		}
		share := 0.0
		if totalWeight > 0 {
			share = 100 * weightByClass[c] / totalWeight
		}
		fmt.Fprintf(w, "  %-10s %3d  %s%% of spawn weight\n", c, countByClass[c], humanize.FtoaWithDigits(share, 1))
	}

	rarities := make(map[catalog.Rarity]int)
	for _, h := range hats {
		rarities[h.Rarity]++
		kinds[h.Unlock.Kind()]++
	}
	fmt.Fprintln(w, "rarities:")
	for r := catalog.RarityCommon; r <= catalog.RarityLegendary; r++ {
		fmt.Fprintf(w, "  %-10s %3d\n", r, rarities[r])
	}

	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	fmt.Fprintln(w, "unlock kinds:")
	for _, k := range names {
		fmt.Fprintf(w, "  %-30s %3d\n", k, kinds[catalog.PredicateKind(k)])
	}
}

func plural(n int, word string) string {
	if n == 1 || word == "species" {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

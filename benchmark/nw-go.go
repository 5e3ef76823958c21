// Copyright © 2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/exascience/pargo/parallel"
	"github.com/pkg/profile"
	"github.com/shenwei356/nw"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var version = "0.1.0"

func main() {
	app := filepath.Base(os.Args[0])
	log.SetFlags(log.Ltime)
	log.SetPrefix("[" + app + "] ")

	var pprofCPU, pprofMem bool
	var prof interface{ Stop() }

	rootCmd := &cobra.Command{
		Use:   app,
		Short: "Needleman-Wunsch alignment in Golang",
		Long: fmt.Sprintf(`Needleman-Wunsch alignment in Golang

 Author: Wei Shen <shenwei356@gmail.com>
Version: v%s

Input file format of pairs:
  >reference
  <query
  >reference
  <query
`, version),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// go tool pprof -http=:8080 cpu.pprof
			if pprofCPU {
				prof = profile.Start(profile.CPUProfile, profile.ProfilePath("."))
			} else if pprofMem {
				prof = profile.Start(profile.MemProfile, profile.ProfilePath("."))
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if prof != nil {
				prof.Stop()
			}
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&pprofCPU, "pprof-cpu", "p", false, "cpu pprof. go tool pprof -http=:8080 cpu.pprof")
	rootCmd.PersistentFlags().BoolVarP(&pprofMem, "pprof-mem", "m", false, "mem pprof. go tool pprof -http=:8080 mem.pprof")

	rootCmd.AddCommand(alignCommand())
	rootCmd.AddCommand(mergeCommand())
	rootCmd.AddCommand(mapCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------

func addPenaltyFlags(cmd *cobra.Command, p *nw.Penalties) {
	cmd.Flags().Float64Var(&p.Match, "match", p.Match, "score of a match")
	cmd.Flags().Float64Var(&p.Mismatch, "mismatch", p.Mismatch, "score of a mismatch")
	cmd.Flags().Float64Var(&p.GapOpen, "gap-open", p.GapOpen, "score of opening a gap")
	cmd.Flags().Float64Var(&p.GapExt, "gap-ext", p.GapExt, "score of extending a gap")
	cmd.Flags().BoolVar(&p.PenalizeStartGaps, "start-gaps", p.PenalizeStartGaps, "penalize leading terminal gaps")
	cmd.Flags().BoolVar(&p.PenalizeEndGaps, "end-gaps", p.PenalizeEndGaps, "penalize trailing terminal gaps")
}

type seqPair struct {
	ref, query []nw.Base
}

func alignCommand() *cobra.Command {
	p := nw.DefaultPenalties
	var infile string
	var saveMatrix, noOutput, progress bool
	var threads int

	cmd := &cobra.Command{
		Use:   "align [flags] [<reference> <query>]",
		Short: "Align two sequences, or sequence pairs from a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if threads < 0 {
				return fmt.Errorf("the value of flag -j/--threads should not be negative: %d", threads)
			}

			var pairs []seqPair
			var err error
			if infile == "" {
				if len(args) != 2 {
					return fmt.Errorf("if flag -i not given, please give me two sequences")
				}
				var pair seqPair
				if pair.ref, err = nw.ParseBases(args[0]); err != nil {
					return err
				}
				if pair.query, err = nw.ParseBases(args[1]); err != nil {
					return err
				}
				pairs = append(pairs, pair)
			} else if pairs, err = readPairs(infile); err != nil {
				return err
			}

			opt := &nw.AlignOptions{SaveMatrix: saveMatrix}
			results := make([]*nw.Alignment[nw.Base], len(pairs))

			var pbs *mpb.Progress
			var bar *mpb.Bar
			if progress {
				pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
				bar = pbs.AddBar(int64(len(pairs)),
					mpb.PrependDecorators(
						decor.Name("aligned pairs: ", decor.WC{W: len("aligned pairs: "), C: decor.DindentRight}),
						decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
					),
					mpb.AppendDecorators(
						decor.Percentage(decor.WC{W: 5}),
						decor.OnComplete(decor.Name(""), ". done"),
					),
				)
			}

			if len(pairs) > 0 {
				parallel.Range(0, len(pairs), threads, func(low, high int) {
					algn := nw.NewAligner[nw.Base](&p, opt)
					for i := low; i < high; i++ {
						results[i] = algn.Align(pairs[i].ref, pairs[i].query)
						if bar != nil {
							bar.Increment()
						}
					}
					nw.RecycleAligner(algn)
				})
			}
			if pbs != nil {
				pbs.Wait()
			}

			if noOutput {
				return nil
			}
			outfh := bufio.NewWriter(os.Stdout)
			defer outfh.Flush()
			for _, aln := range results {
				if err = writeAlignment(outfh, aln); err != nil {
					return err
				}
				nw.RecycleAlignment(aln)
			}
			return nil
		},
	}

	addPenaltyFlags(cmd, &p)
	cmd.Flags().StringVarP(&infile, "infile", "i", "", "input file of sequence pairs")
	cmd.Flags().BoolVarP(&saveMatrix, "matrix", "M", false, "print the traceability matrix")
	cmd.Flags().BoolVarP(&noOutput, "no-output", "N", false, "do not output alignment (for benchmark)")
	cmd.Flags().BoolVar(&progress, "progress", false, "show progress bar")
	cmd.Flags().IntVarP(&threads, "threads", "j", 0, "number of parallel batches, 0 for all CPUs")
	return cmd
}

func writeAlignment(outfh io.Writer, aln *nw.Alignment[nw.Base]) error {
	pair := aln.Pair()
	cigar := pair.EditScript()
	R, A, Q := pair.AlignmentText()

	fmt.Fprintf(outfh, "ref     %s\n", R)
	fmt.Fprintf(outfh, "        %s\n", A)
	fmt.Fprintf(outfh, "query   %s\n", Q)
	fmt.Fprintf(outfh, "cigar   %s\n", cigar)
	fmt.Fprintf(outfh, "md      %s\n", cigar.MismatchString())
	fmt.Fprintf(outfh, "score: %.2f, normalized score: %.4f, length: %d, matches: %d, edit distance: %d, gap regions: %d\n",
		aln.Score(), aln.NormalizedScore(), cigar.AlignLen, cigar.Matches,
		cigar.EditDistance(), cigar.GapRegions)
	if text, err := aln.Matrix(); err == nil {
		fmt.Fprint(outfh, text)
	}
	_, err := fmt.Fprintln(outfh)
	return err
}

func readPairs(file string) ([]seqPair, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s: %w", file, err)
	}
	defer fh.Close()

	var pairs []seqPair
	var pair seqPair
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<30)
	var line string
	var n int
	for scanner.Scan() {
		n++
		line = strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch line[0] {
		case '>':
			if pair.ref, err = nw.ParseBases(line[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
		case '<':
			if pair.query, err = nw.ParseBases(line[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
			pairs = append(pairs, pair)
			pair = seqPair{}
		default:
			return nil, fmt.Errorf("line %d: a line should start with '>' or '<'", n)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("something wrong in reading file: %s: %w", file, err)
	}
	return pairs, nil
}

// readLines reads non-empty lines of a file.
func readLines(file string) ([]string, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s: %w", file, err)
	}
	defer fh.Close()

	var lines []string
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<30)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("something wrong in reading file: %s: %w", file, err)
	}
	return lines, nil
}

// --------------------------------------------------------------

func mergeCommand() *cobra.Command {
	p := nw.MergePenalties
	var infile, policy string

	cmd := &cobra.Command{
		Use:   "merge [flags] [<seq> ...]",
		Short: "Merge sequences into a consensus one",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if infile != "" {
				if args, err = readLines(infile); err != nil {
					return err
				}
			}
			if len(args) == 0 {
				return fmt.Errorf("no sequences given")
			}

			m := nw.NewMerger[nw.Base]()
			m.Penalties = &p
			switch policy {
			case "panic":
				m.Policy = nw.ConflictPanic
			case "reference":
				m.Policy = nw.ConflictPreferReference
			case "query":
				m.Policy = nw.ConflictPreferQuery
			default:
				return fmt.Errorf("invalid value of --policy: %s", policy)
			}

			seqs := make([][]nw.Base, len(args))
			for i, s := range args {
				if seqs[i], err = nw.ParseBases(s); err != nil {
					return err
				}
			}

			merged := m.Merge(seqs)
			log.Printf("%d sequences merged, consensus length: %d", len(seqs), len(merged))

			outfh := bufio.NewWriter(os.Stdout)
			defer outfh.Flush()
			for _, b := range merged {
				outfh.WriteByte(byte(b))
			}
			outfh.WriteByte('\n')
			return nil
		},
	}

	addPenaltyFlags(cmd, &p)
	cmd.Flags().StringVarP(&infile, "infile", "i", "", "input file, one sequence per line")
	cmd.Flags().StringVar(&policy, "policy", "panic", `how to merge conflicting letters: "panic", "reference", or "query"`)
	return cmd
}

// --------------------------------------------------------------

func mapCommand() *cobra.Command {
	opt := nw.DefaultMapperOptions
	var refFile, infile string
	var limit int

	cmd := &cobra.Command{
		Use:   "map [flags] -r <refs.tsv> [<query> ...]",
		Short: "Shortlist references sharing the most k-mers with queries",
		Long: `Shortlist references sharing the most k-mers with queries

Reference file format: one reference per line, "name<TAB>sequence".
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readLines(refFile)
			if err != nil {
				return err
			}

			m := nw.NewSequenceMapper[nw.Base, string](&opt)
			var seq []nw.Base
			for i, line := range lines {
				name, s, found := strings.Cut(line, "\t")
				if !found {
					return fmt.Errorf("%s: line %d: two tab-delimited columns expected", refFile, i+1)
				}
				if seq, err = nw.ParseBases(s); err != nil {
					return fmt.Errorf("%s: line %d: %w", refFile, i+1, err)
				}
				if err = m.AddReference(seq, name); err != nil {
					return fmt.Errorf("%s: line %d: %w", refFile, i+1, err)
				}
			}
			log.Printf("%d references indexed", m.Len())

			if infile != "" {
				if args, err = readLines(infile); err != nil {
					return err
				}
			}
			queries := make([][]nw.Base, len(args))
			for i, s := range args {
				if queries[i], err = nw.ParseBases(s); err != nil {
					return err
				}
			}

			outfh := bufio.NewWriter(os.Stdout)
			defer outfh.Flush()
			for i, keys := range m.QueryBestCandidatesBatch(queries, limit) {
				fmt.Fprintf(outfh, "%s\t%s\n", args[i], strings.Join(keys, ","))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&refFile, "refs", "r", "", "reference file")
	cmd.Flags().StringVarP(&infile, "infile", "i", "", "query file, one sequence per line")
	cmd.Flags().IntVarP(&opt.SliceSize, "kmer", "k", opt.SliceSize, "k-mer size")
	cmd.Flags().IntVarP(&opt.Spacing, "spacing", "s", opt.Spacing, "step of k-mers of references")
	cmd.Flags().IntVarP(&opt.QuerySpacing, "query-spacing", "S", opt.QuerySpacing, "step of k-mers of queries")
	cmd.Flags().IntVarP(&limit, "limit", "n", 1, "maximum number of candidates, ties are kept. 0 for all")
	cobra.CheckErr(cmd.MarkFlagRequired("refs"))
	return cmd
}

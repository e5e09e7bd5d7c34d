// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
	"cloudeng.io/errors"
	"github.com/Colelyman/bwt-merge"
	"github.com/schollz/progressbar/v2"
)

// CommonFlags are shared by every subcommand.
type CommonFlags struct {
	Verbose bool `subcmd:"verbose,false,verbose debug/trace information"`
}

type catFlags struct {
	CommonFlags
	Format string `subcmd:"format,native,'format tag of the input file(s)'"`
}

type mergeFlags struct {
	CommonFlags
	FormatA     string `subcmd:"format-a,native,'format tag of the first input BWT'"`
	FormatB     string `subcmd:"format-b,native,'format tag of the second input BWT'"`
	FormatOut   string `subcmd:"format-out,native,'format tag to write the merged BWT in'"`
	RankArray   string `subcmd:"rankarray,,'path to the serialized rank array describing the interleaving'"`
	Output      string `subcmd:"output,,'path to write the merged BWT to'"`
	Threads     int    `subcmd:"threads,0,'Threads value recorded in the merge parameters (the merge itself always runs one producer and one consumer), 0 means GOMAXPROCS'"`
	ProgressBar bool   `subcmd:"progress,true,display a progress bar"`
}

type convertFlags struct {
	CommonFlags
	From string `subcmd:"from,sga,'format tag to read the input in'"`
	To   string `subcmd:"to,native,'format tag to write the output in'"`
}

type inspectFlags struct {
	CommonFlags
}

var cmdSet *subcmd.CommandSet

func init() {
	catCmd := subcmd.NewCommand("cat",
		subcmd.MustRegisterFlagStruct(&catFlags{}, nil, nil),
		cat, subcmd.AtLeastNArguments(0))
	catCmd.Document(`expand one or more BWT files to their raw symbol stream on stdout.`)

	mergeCmd := subcmd.NewCommand("merge",
		subcmd.MustRegisterFlagStruct(&mergeFlags{}, nil, nil),
		merge, subcmd.ExactlyNumArguments(2))
	mergeCmd.Document(`merge two BWT files according to a precomputed rank array.`)

	convertCmd := subcmd.NewCommand("convert",
		subcmd.MustRegisterFlagStruct(&convertFlags{}, nil, nil),
		convert, subcmd.ExactlyNumArguments(2))
	convertCmd.Document(`convert a BWT file from one on-disk format to another.`)

	inspectCmd := subcmd.NewCommand("inspect",
		subcmd.MustRegisterFlagStruct(&inspectFlags{}, nil, nil),
		inspect, subcmd.AtLeastNArguments(1))
	inspectCmd.Document(`print the header fields of one or more native or SGA format files.`)

	cmdSet = subcmd.NewCommandSet(catCmd, mergeCmd, convertCmd, inspectCmd)
	cmdSet.Document(`merge and inspect Burrows-Wheeler Transforms stored as FM-indexes.`)
}

func main() {
	cmdSet.MustDispatch(context.Background())
}

func openInput(name string) (io.ReadCloser, error) {
	if len(name) == 0 || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func createOutput(name string) (io.WriteCloser, error) {
	if len(name) == 0 {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(name)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func cat(ctx context.Context, values interface{}, args []string) error {
	cl := values.(*catFlags)
	errs := &errors.M{}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for _, name := range args {
		if err := catFile(name, cl.Format, cl.Verbose, out); err != nil {
			errs.Append(fmt.Errorf("%v: %v", name, err))
		}
	}
	return errs.Err()
}

func catFile(name, format string, verbose bool, out *bufio.Writer) error {
	rd, err := openInput(name)
	if err != nil {
		return err
	}
	defer rd.Close()

	bwt, alpha, err := bwtmerge.LoadFormat(format, rd, bwtmerge.Verbose(verbose))
	if err != nil {
		return err
	}
	for i := uint64(0); i < bwt.Size(); i++ {
		if err := out.WriteByte(alpha.Char(bwt.At(i))); err != nil {
			return err
		}
	}
	return nil
}

func progressBar(ctx context.Context, wr io.Writer, ch <-chan bwtmerge.Progress, total uint64) {
	bar := progressbar.NewOptions64(int64(total),
		progressbar.OptionSetWriter(wr),
		progressbar.OptionSetPredictTime(true))
	bar.RenderBlank()
	var last uint64
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				fmt.Fprintln(wr)
				return
			}
			if p.Positions > last {
				bar.Add64(int64(p.Positions - last))
				last = p.Positions
			}
		case <-ctx.Done():
			return
		}
	}
}

func merge(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cl := values.(*mergeFlags)
	cmdutil.HandleSignals(cancel, os.Interrupt)

	aFile, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer aFile.Close()
	a, alphaA, err := bwtmerge.LoadFormat(cl.FormatA, aFile, bwtmerge.Verbose(cl.Verbose))
	if err != nil {
		return fmt.Errorf("loading %v: %v", args[0], err)
	}

	bFile, err := openInput(args[1])
	if err != nil {
		return err
	}
	defer bFile.Close()
	b, _, err := bwtmerge.LoadFormat(cl.FormatB, bFile, bwtmerge.Verbose(cl.Verbose))
	if err != nil {
		return fmt.Errorf("loading %v: %v", args[1], err)
	}

	raFile, err := openInput(cl.RankArray)
	if err != nil {
		return fmt.Errorf("opening rank array %v: %v", cl.RankArray, err)
	}
	defer raFile.Close()
	ra, err := bwtmerge.LoadRLArray(raFile)
	if err != nil {
		return fmt.Errorf("loading rank array %v: %v", cl.RankArray, err)
	}

	params := bwtmerge.NewMergeParameters()
	if cl.Threads > 0 {
		params.Threads = cl.Threads
	}

	var progressCh chan bwtmerge.Progress
	if cl.ProgressBar {
		progressCh = make(chan bwtmerge.Progress, 16)
		done := make(chan struct{})
		go func() {
			progressBar(ctx, os.Stderr, progressCh, a.Size())
			close(done)
		}()
		defer func() {
			close(progressCh)
			<-done
		}()
	}

	result := bwtmerge.MergeBWTs(a, b, alphaA, ra, params, progressCh)

	out, err := createOutput(cl.Output)
	if err != nil {
		return err
	}
	errs := &errors.M{}
	errs.Append(bwtmerge.SaveFormat(cl.FormatOut, out, result, alphaA, bwtmerge.Verbose(cl.Verbose)))
	errs.Append(out.Close())
	return errs.Err()
}

func convert(ctx context.Context, values interface{}, args []string) error {
	cl := values.(*convertFlags)

	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	bwt, alpha, err := bwtmerge.LoadFormat(cl.From, in, bwtmerge.Verbose(cl.Verbose))
	if err != nil {
		return fmt.Errorf("loading %v as %v: %v", args[0], cl.From, err)
	}

	out, err := createOutput(args[1])
	if err != nil {
		return err
	}
	errs := &errors.M{}
	errs.Append(bwtmerge.SaveFormat(cl.To, out, bwt, alpha, bwtmerge.Verbose(cl.Verbose)))
	errs.Append(out.Close())
	return errs.Err()
}

// Copyright 2018-2019 The logrange Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jrivets/log4g"
	"github.com/logrange/linker"
	"github.com/logrange/slider/pkg/series"
	"github.com/pkg/errors"
)

type (
	// ingestor reads samples from the input into the Store and prints the
	// most recent rows of the aligned series to the output.
	ingestor struct {
		Store *series.Store `inject:""`

		logger log4g.Logger
		in     io.Reader
		out    io.Writer
		now    func() time.Time
		names  []string
		rows   int

		lines int
		bad   int
	}
)

func newIngestor(in io.Reader, out io.Writer) *ingestor {
	ing := new(ingestor)
	ing.logger = log4g.GetLogger("ingestor")
	ing.in = in
	ing.out = out
	ing.now = time.Now
	return ing
}

// run wires the store and the ingestor, reads all the input and prints
// the result.
func run(ctx context.Context, cfg *series.Config, ing *ingestor) error {
	injector := linker.New()
	injector.SetLogger(log4g.GetLogger("injector"))
	injector.Register(
		linker.Component{Name: "", Value: cfg},
		linker.Component{Name: "", Value: series.NewStore()},
		linker.Component{Name: "", Value: ing},
	)
	injector.Init(ctx)
	defer injector.Shutdown()

	if err := ing.ingest(ctx); err != nil {
		return err
	}
	return ing.print()
}

func (ing *ingestor) ingest(ctx context.Context) error {
	sc := bufio.NewScanner(ing.in)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ing.lines++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		smpl, err := series.ParseSample(line)
		if err != nil {
			ing.bad++
			ing.logger.Warn("Line ", ing.lines, " is skipped, err=", err)
			continue
		}
		if smpl.Time.IsZero() {
			smpl.Time = ing.now()
		}

		if _, err := ing.Store.Add(smpl.Time, smpl.Values); err != nil {
			ing.bad++
			ing.logger.Warn("Line ", ing.lines, " is not stored, err=", err)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "could not read line %d", ing.lines+1)
	}

	_, err := ing.Store.Prune()
	return err
}

func (ing *ingestor) print() error {
	names := ing.names
	if len(names) == 0 {
		names = ing.Store.Names()
	}

	if len(names) > 0 {
		fmt.Fprintf(ing.out, "%-6s  %-24s", "INDEX", "TIME")
		for _, n := range names {
			fmt.Fprintf(ing.out, "  %12s", n)
		}
		fmt.Fprintln(ing.out)

		st := ing.Store.Stats()
		err := ing.Store.WalkFrom(st.Next-ing.rows, names, func(r *series.Row) bool {
			fmt.Fprintf(ing.out, "%-6d  %-24s", r.Index, r.Time.UTC().Format("2006-01-02T15:04:05.000Z"))
			for i := range names {
				if r.Present[i] {
					fmt.Fprintf(ing.out, "  %12g", r.Values[i])
				} else {
					fmt.Fprintf(ing.out, "  %12s", "-")
				}
			}
			fmt.Fprintln(ing.out)
			return true
		})
		if err != nil {
			return err
		}
	}

	st := ing.Store.Stats()
	mem := uint64(st.Samples)*8 + uint64(st.Times)*4
	fmt.Fprintf(ing.out, "\n%s lines read (%s skipped), %s series: %s\n", humanize.Comma(int64(ing.lines)),
		humanize.Comma(int64(ing.bad)), humanize.Comma(int64(st.Series)), strings.Join(ing.Store.Names(), ", "))
	fmt.Fprintf(ing.out, "%s samples in %s time entries [%d, %d), %s dropped, %s evicted, ~%s\n",
		humanize.Comma(int64(st.Samples)), humanize.Comma(int64(st.Times)), st.Base, st.Next,
		humanize.Comma(st.Dropped), humanize.Comma(st.Evicted), humanize.Bytes(mem))
	return nil
}

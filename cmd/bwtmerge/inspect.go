// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"cloudeng.io/errors"
	"github.com/Colelyman/bwt-merge"
)

// inspectTags lists the formats inspect knows how to auto-detect: the two
// carrying a validated magic header, matching the original's
// sga_inspect/bwt_convert tools. The other formats have no header to
// distinguish a good decode from a coincidental one, so they are not
// guessed here.
var inspectTags = []string{"native", "sga"}

func inspectFile(name string) error {
	rd, err := openInput(name)
	if err != nil {
		return err
	}
	defer rd.Close()

	var lastErr error
	for _, tag := range inspectTags {
		bwt, alpha, err := bwtmerge.LoadFormat(tag, rd)
		if err != nil {
			lastErr = err
			rd.Close()
			if rd, err = openInput(name); err != nil {
				return err
			}
			continue
		}
		fmt.Printf("%s: format=%s sequences=%d bases=%d sigma=%d hash=%x\n",
			name, tag, bwt.Sequences(), bwt.Size(), bwt.Sigma(), bwt.Hash())
		return nil
	}
	return fmt.Errorf("%s: does not match any known format: %v", name, lastErr)
}

func inspect(ctx context.Context, values interface{}, args []string) error {
	fmt.Println("Inspecting BWT files")
	fmt.Println()

	errs := &errors.M{}
	for _, name := range args {
		errs.Append(inspectFile(name))
	}
	return errs.Err()
}

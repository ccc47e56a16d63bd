// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import "io/ioutil"

func readFile(path string) ([]byte, error) {
	return ioutil.ReadFile(path)
}

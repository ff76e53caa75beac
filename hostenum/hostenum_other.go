// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// +build !windows

package hostenum

import "errors"

// List is unimplemented outside Windows, where this package's WMI-based
// path is not available; it always returns an error.
func List() ([]Device, error) {
	return nil, errors.New("hostenum: List is only implemented on windows")
}

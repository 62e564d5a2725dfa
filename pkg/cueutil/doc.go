// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Recipes and the recipekit config file are both CUE. Decoding follows the
// same three steps everywhere:
//
//  1. Compile the embedded schema and look up its root definition
//  2. Compile the user document and unify it with that definition
//  3. Validate and decode the unified value into a Go struct
//
// # Usage
//
//	//go:embed recipe_schema.cue
//	var schema []byte
//
//	res, err := cueutil.Decode[recipeFile](schema, data, "#Recipe",
//	    cueutil.WithFilename("otc-auth.cue"))
//	if err != nil {
//	    return nil, err // carries the CUE path of the offending field
//	}
package cueutil

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package versionid

import (
	"reflect"
	"testing"
)

func TestResolveNoCollision(t *testing.T) {
	seen := Seen{"other": true}
	got, err := Resolve("sv1", seen)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "sv1" {
		t.Errorf("Resolve(\"sv1\") = %q, want unchanged", got)
	}
}

func TestResolveCollisionStartsAtOne(t *testing.T) {
	seen := Seen{"sv1": true}
	got, err := Resolve("sv1", seen)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "sv1.1" {
		t.Errorf("Resolve(\"sv1\") with collision = %q, want %q", got, "sv1.1")
	}
}

func TestResolveCollisionSkipsTakenSuffixes(t *testing.T) {
	seen := Seen{"sv1": true, "sv1.1": true, "sv1.2": true}
	got, err := Resolve("sv1", seen)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "sv1.3" {
		t.Errorf("Resolve(\"sv1\") = %q, want %q", got, "sv1.3")
	}
}

func TestResolveContinuesFromExistingSuffix(t *testing.T) {
	seen := Seen{"sv1.4": true}
	got, err := Resolve("sv1.4", seen)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "sv1.5" {
		t.Errorf("Resolve(\"sv1.4\") = %q, want %q (continue from suffix, not restart at .1)", got, "sv1.5")
	}
}

func TestResolveNonNumericSuffixIsFatal(t *testing.T) {
	seen := Seen{"sv1.dup": true}
	if _, err := Resolve("sv1.dup", seen); err == nil {
		t.Fatal("Resolve with non-numeric suffix on a collision: want error, got nil")
	}
}

func TestVersionColumnResolvesWithinColumn(t *testing.T) {
	ids := []string{"sv1", "sv1", "sv1"}
	seen := Seen{}
	got, err := VersionColumn(ids, seen)
	if err != nil {
		t.Fatalf("VersionColumn: %v", err)
	}
	want := []string{"sv1", "sv1.1", "sv1.2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("VersionColumn(%v) = %v, want %v", ids, got, want)
	}
}

func TestVersionColumnIdempotentOnUniqueColumn(t *testing.T) {
	ids := []string{"a", "b", "c"}
	seen := Seen{}
	got, err := VersionColumn(ids, seen)
	if err != nil {
		t.Fatalf("VersionColumn: %v", err)
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("VersionColumn(%v) = %v, want unchanged", ids, got)
	}
}

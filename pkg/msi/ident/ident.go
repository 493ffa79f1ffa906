// Package ident derives the stable GUIDs a package is identified by.
//
// Product and upgrade codes must be reproducible: rebuilding the same
// version has to yield the same codes, and a new version has to yield
// a new product code under the same upgrade code. See
// https://docs.microsoft.com/en-us/windows/desktop/Msi/productcode
package ident

import (
	"github.com/google/uuid"
)

// DefaultNamespace roots every derivation.
var DefaultNamespace = uuid.MustParse("3941a426-8f68-469a-a7c5-99944d6067d8")

// Deriver computes version 5 UUIDs under a fixed namespace.
type Deriver struct {
	Namespace uuid.UUID
}

func New(namespace uuid.UUID) Deriver {
	if namespace == uuid.Nil {
		namespace = DefaultNamespace
	}
	return Deriver{Namespace: namespace}
}

func (d Deriver) ns() uuid.UUID {
	if d.Namespace == uuid.Nil {
		return DefaultNamespace
	}
	return d.Namespace
}

// UpgradeCode is shared by every version of a product.
func (d Deriver) UpgradeCode(name string) uuid.UUID {
	return uuid.NewSHA1(d.ns(), []byte(name))
}

// ProductCode identifies one version of a product.
func (d Deriver) ProductCode(name, version string) uuid.UUID {
	return uuid.NewSHA1(d.ns(), []byte(name+"@"+version))
}

// ComponentID identifies a component by its key.
func (d Deriver) ComponentID(componentKey string) uuid.UUID {
	return uuid.NewSHA1(d.ns(), []byte(componentKey))
}

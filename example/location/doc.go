// Package location is a sample aggregate tracking the position of one object.
package location

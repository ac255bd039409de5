package options

import (
	"errors"

	"github.com/spf13/cobra"
)

// PlacementOptions choose where a new or moved node lands.
type PlacementOptions struct {
	After  string
	Before string
	Parent string
	First  bool
}

func AddPlacementArgs(cmd *cobra.Command, o *PlacementOptions, parentUsage string) {
	cmd.Flags().StringVar(&o.After, "after", "",
		"Place directly after this sibling.")
	cmd.Flags().StringVar(&o.Before, "before", "",
		"Place directly before this sibling.")
	cmd.Flags().BoolVar(&o.First, "first", false,
		"Place first in the target scope.")
	if parentUsage != "" {
		cmd.Flags().StringVar(&o.Parent, "parent", "", parentUsage)
	}
}

// Validate rejects combinations that name more than one anchor.
func (o *PlacementOptions) Validate() error {
	n := 0
	for _, set := range []bool{o.After != "", o.Before != "", o.First} {
		if set {
			n++
		}
	}
	if n > 1 {
		return errors.New("only one of --after, --before or --first may be set")
	}
	if o.Parent != "" && (o.After != "" || o.Before != "") {
		return errors.New("--parent cannot be combined with --after or --before")
	}
	return nil
}

package book

import "github.com/zclconf/go-cty/cty"

// Merge concatenates collections into a new one. Relative item order
// within each source is preserved and insertion indices are renumbered
// contiguously 1..N across the result. Group labels are unioned with
// later sources winning on key collision. Datasets with identical
// fingerprints collapse to the first-seen binding, and item dataset
// references to the collapsed names are rewritten to the committed one.
//
// Defaults are not merged: they were already resolved into each item at
// insertion time, so the merged collection starts with the first source's
// defaults for any items added after the merge.
func Merge(collections ...Collection) Collection {
	var out Collection
	if len(collections) > 0 {
		out.defaults = collections[0].defaults.Clone()
	}

	// committed maps a dataset fingerprint to its committed name.
	committed := make(map[string]string)

	for _, src := range collections {
		// renames maps this source's dataset names to committed names.
		renames := make(map[string]string)
		for _, ds := range src.datasets {
			if ds.Fingerprint != "" {
				if name, ok := committed[ds.Fingerprint]; ok {
					if name != ds.Name {
						renames[ds.Name] = name
					}
					continue
				}
				committed[ds.Fingerprint] = ds.Name
			}
			out.datasets = append(out.datasets, ds)
		}

		for _, it := range src.items {
			merged := it.clone()
			merged.Index = len(out.items) + 1
			if ref := merged.DatasetRef(); ref != "" {
				if name, ok := renames[ref]; ok {
					merged.Fields[FieldDataset] = cty.StringVal(name)
				}
			}
			out.items = append(out.items, merged)
		}

		if src.groupLabels != nil {
			if out.groupLabels == nil {
				out.groupLabels = make(map[string]string, len(src.groupLabels))
			}
			for k, v := range src.groupLabels {
				out.groupLabels[k] = v
			}
		}
	}
	return out
}

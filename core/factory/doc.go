// Package factory instantiates pluggable modules from configuration.
//
// A ModuleConfig names a registered type and carries raw settings that the
// type's factory decodes with Decode. Metrics sinks and journal backends are
// both built this way:
//
//	backends := factory.NewRegistry[journal.Store]()
//	backends.Register("jsonl", func(conf map[string]any) (journal.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return journal.NewJSONLStore(c.Path)
//	})
package factory

// Package factory is a generic registry that builds pluggable modules
// (metrics sinks, dispatch policies) from a type name and a raw settings map.
//
//	reg := factory.NewRegistry[policy.Policy]()
//	_ = reg.Register("random", func(conf map[string]any) (policy.Policy, error) {
//	    var c policy.RandomConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return policy.NewRandom(c), nil
//	})
//	p, err := reg.Create(factory.ModuleConfig{Type: "random", Conf: map[string]any{"seed": 7}})
package factory

package callbridge

import (
	"github.com/opd-ai/callbridge/interfaces"
	"github.com/sirupsen/logrus"
)

// classCache holds global references to the host classes the bridge needs at
// call time. It is filled once at construction and only read afterwards.
type classCache struct {
	classes map[string]interfaces.Ref
}

// newClassCache resolves every name up front so a missing class fails
// construction rather than a call under load.
func newClassCache(env interfaces.IHostEnv, names ...string) (*classCache, error) {
	c := &classCache{classes: make(map[string]interfaces.Ref, len(names))}
	for _, name := range names {
		local, err := env.FindClass(name)
		if err != nil {
			c.release(env)
			return nil, &ResolutionError{Target: name, Method: "FindClass", Err: err}
		}
		global, err := env.NewGlobalRef(local)
		env.DeleteLocalRef(local)
		if err != nil {
			c.release(env)
			return nil, &ResolutionError{Target: name, Method: "NewGlobalRef", Err: err}
		}
		c.classes[name] = global

		logrus.WithFields(logrus.Fields{
			"function": "newClassCache",
			"class":    name,
		}).Debug("Cached host class")
	}
	return c, nil
}

func (c *classCache) get(name string) (interfaces.Ref, error) {
	ref, ok := c.classes[name]
	if !ok {
		return interfaces.Null, &ResolutionError{Target: name, Method: "FindClass", Err: ErrClassNotCached}
	}
	return ref, nil
}

func (c *classCache) release(env interfaces.IHostEnv) {
	for name, ref := range c.classes {
		env.DeleteGlobalRef(ref)
		delete(c.classes, name)
	}
}

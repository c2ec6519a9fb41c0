// Package registry implements the factory/instance registry (C3): a
// name→factory map with lazy, dependency-ordered instantiation and
// reflection-based method dispatch.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	serviceerrors "github.com/R3E-Network/scenario-engine/infrastructure/errors"
)

// ProviderConfig is the global configuration every factory receives. It is
// deliberately an interface{} payload at this layer — concrete shape lives
// in infrastructure/config.ProviderConfig — so the registry has no
// provider-specific dependency.
type ProviderConfig any

// ClassFactory is a textual class name, a factory closure, and an optional
// ordered list of dependency class names resolved before the factory runs.
type ClassFactory struct {
	Name         string
	Dependencies []string
	New          func(cfg ProviderConfig, deps map[string]any) (any, error)
}

// Registry turns class names into live objects with lazily resolved
// dependency graphs. Grounded on system/core/registry.go's mutex-guarded
// map shape, simplified to the single factories+instances pair this spec
// needs — the teacher's many typed *Engines() accessors are a service-mesh
// concept with no analogue here.
type Registry struct {
	mu        sync.Mutex
	factories map[string]ClassFactory
	instances map[string]any
	cfg       ProviderConfig
}

// New constructs an empty Registry bound to cfg.
func New(cfg ProviderConfig) *Registry {
	return &Registry{
		factories: make(map[string]ClassFactory),
		instances: make(map[string]any),
		cfg:       cfg,
	}
}

// Register inserts factory into the name-keyed map, replacing any existing
// entry of the same name.
func (r *Registry) Register(factory ClassFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[factory.Name] = factory
}

// ClearInstances drops every cached instance, forcing the next GetInstance
// call for each class to reconstruct it. Factories remain registered.
func (r *Registry) ClearInstances() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]any)
}

// GetInstance returns the cached instance for className if present;
// otherwise it resolves the class's dependency graph (detecting cycles),
// invokes the factory, caches, and returns the result.
func (r *Registry) GetInstance(className string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getInstanceLocked(className, make(map[string]bool))
}

func (r *Registry) getInstanceLocked(className string, visiting map[string]bool) (any, error) {
	if inst, ok := r.instances[className]; ok {
		return inst, nil
	}

	factory, ok := r.factories[className]
	if !ok {
		return nil, serviceerrors.UnknownClass(className)
	}

	if visiting[className] {
		return nil, serviceerrors.ConfigurationError(
			fmt.Sprintf("dependency cycle detected resolving %q", className))
	}
	visiting[className] = true

	deps := make(map[string]any, len(factory.Dependencies))
	for _, depName := range factory.Dependencies {
		depInstance, err := r.getInstanceLocked(depName, visiting)
		if err != nil {
			return nil, err
		}
		deps[depName] = depInstance
	}
	delete(visiting, className)

	instance, err := factory.New(r.cfg, deps)
	if err != nil {
		return nil, err
	}
	r.instances[className] = instance
	return instance, nil
}

// ClassMetadata is diagnostic-only: the set of exported methods and (for
// struct instances) field names visible on a resolved instance.
type ClassMetadata struct {
	Methods []string
	Fields  []string
}

// GetClassMetadata resolves className and inspects its instance via
// reflection. It is not required for correctness of dispatch.
func (r *Registry) GetClassMetadata(className string) (ClassMetadata, error) {
	instance, err := r.GetInstance(className)
	if err != nil {
		return ClassMetadata{}, err
	}

	v := reflect.ValueOf(instance)
	t := v.Type()

	methods := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		methods = append(methods, t.Method(i).Name)
	}
	sort.Strings(methods)

	var fields []string
	structType := t
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() == reflect.Struct {
		fields = make([]string, 0, structType.NumField())
		for i := 0; i < structType.NumField(); i++ {
			fields = append(fields, structType.Field(i).Name)
		}
	}

	return ClassMetadata{Methods: methods, Fields: fields}, nil
}

// InvokeMethod resolves className's instance and calls methodName with
// parameters dispatched per the five-way arity policy in §4.3, including
// the preserved ambiguous case: when the method declares ≥2 parameters but
// the map has fewer entries than that, the map is passed as a single
// object (the source's fallthrough behavior — preserved, not "fixed").
func (r *Registry) InvokeMethod(className, methodName string, parameters map[string]any) (result any, err error) {
	instance, err := r.GetInstance(className)
	if err != nil {
		return nil, err
	}

	v := reflect.ValueOf(instance)
	method := v.MethodByName(methodName)
	if !method.IsValid() {
		return nil, serviceerrors.MissingMethod(className, methodName)
	}

	methodType := method.Type()
	arity := methodType.NumIn()

	args, dispatchErr := dispatchArgs(arity, parameters)
	if dispatchErr != nil {
		return nil, dispatchErr
	}

	// The preserved ambiguous case (§9) can produce an argument list that
	// does not match the method's real signature (e.g. one object passed
	// to a two-positional-argument method); reflect.Value.Call panics
	// rather than erroring in that case, so it is converted here.
	defer func() {
		if rec := recover(); rec != nil {
			err = serviceerrors.InvalidInput(methodName,
				fmt.Sprintf("argument dispatch mismatch: %v", rec))
		}
	}()

	results := method.Call(args)
	return unpackResults(results)
}

// orderedValues returns parameters' values in Go map iteration order is
// unspecified, so callers that need insertion order must supply an
// ordered slice instead; for this registry, scenario parameter maps are
// always decoded from JSON objects, where Go's encoding/json does not
// preserve key order either. The five-way policy's "insertion order"
// wording refers to the scenario file's declared parameter order, which
// dispatchArgs approximates via sorted keys for determinism across runs.
func orderedValues(parameters map[string]any) []any {
	keys := make([]string, 0, len(parameters))
	for k := range parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]any, 0, len(keys))
	for _, k := range keys {
		values = append(values, parameters[k])
	}
	return values
}

func dispatchArgs(arity int, parameters map[string]any) ([]reflect.Value, error) {
	switch {
	case arity == 0:
		return nil, nil

	case arity == 1 && len(parameters) == 1:
		for _, v := range parameters {
			return []reflect.Value{reflect.ValueOf(v)}, nil
		}
		return nil, nil

	case arity == 1 && len(parameters) > 1:
		return []reflect.Value{reflect.ValueOf(parameters)}, nil

	case arity >= 2 && len(parameters) >= arity:
		values := orderedValues(parameters)[:arity]
		args := make([]reflect.Value, len(values))
		for i, val := range values {
			args[i] = reflect.ValueOf(val)
		}
		return args, nil

	default:
		// Ambiguous case (§9 open question): arity >= 2 but fewer entries
		// than arity, or arity == 1 with zero entries. Preserved
		// fallthrough: pass the map as a single object.
		return []reflect.Value{reflect.ValueOf(parameters)}, nil
	}
}

func unpackResults(results []reflect.Value) (any, error) {
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if isError(results[0]) {
			if results[0].IsNil() {
				return nil, nil
			}
			return nil, results[0].Interface().(error)
		}
		return results[0].Interface(), nil
	default:
		last := results[len(results)-1]
		if isError(last) {
			var err error
			if !last.IsNil() {
				err = last.Interface().(error)
			}
			if len(results) == 2 {
				return results[0].Interface(), err
			}
			return results[:len(results)-1], err
		}
		return results, nil
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func isError(v reflect.Value) bool {
	return v.Type().Implements(errorType)
}

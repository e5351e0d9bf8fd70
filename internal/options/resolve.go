package options

// Resolve merges the three layers field by field. For each field the most
// specific present layer wins; list and map values replace the lower layer
// outright. prefix, debug and individually are read from the system layer
// only. The result shares no memory with its inputs.
func Resolve(defaults Options, system, unit Override) Options {
	o := defaults.Clone()

	o.Exclude = pick(o.Exclude, system.Exclude, unit.Exclude)
	o.External = pick(o.External, system.External, unit.External)
	o.ExternalPaths = pick(o.ExternalPaths, system.ExternalPaths, unit.ExternalPaths)
	o.Extensions = pick(o.Extensions, system.Extensions, unit.Extensions)
	o.Global = pick(o.Global, system.Global, unit.Global)
	o.IncludePaths = pick(o.IncludePaths, system.IncludePaths, unit.IncludePaths)
	o.Ignore = pick(o.Ignore, system.Ignore, unit.Ignore)
	o.Minify = pick(o.Minify, system.Minify, unit.Minify)
	o.Plugins = pick(o.Plugins, system.Plugins, unit.Plugins)
	o.Presets = pick(o.Presets, system.Presets, unit.Presets)

	o.Prefix = system.Prefix.Or(o.Prefix)
	o.Debug = system.Debug.Or(o.Debug)
	o.Individually = system.Individually.Or(o.Individually)

	return o.Clone()
}

func pick[T any](base T, system, unit Field[T]) T {
	return unit.Or(system.Or(base))
}

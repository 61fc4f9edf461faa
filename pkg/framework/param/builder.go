package param

// Builder provides a fluent API for creating parameters
type Builder struct {
	param *Parameter
}

// New creates a new parameter builder for a normalized 0..1 parameter.
func New(key, name string) *Builder {
	return &Builder{
		param: &Parameter{
			Key:       key,
			Name:      name,
			ShortName: name,
			Range:     Linear(0, 1),
			Flags:     CanAutomate,
		},
	}
}

// ID pins the numeric id instead of deriving it from the key.
func (b *Builder) ID(id uint32) *Builder {
	b.param.ID = id
	return b
}

// ShortName sets the short name
func (b *Builder) ShortName(name string) *Builder {
	b.param.ShortName = name
	return b
}

// Range sets a linear min/max range.
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Range = Linear(min, max)
	return b
}

// WithRange sets an arbitrary range.
func (b *Builder) WithRange(r Range) *Builder {
	b.param.Range = r
	if r.Kind == RangeEnum {
		b.param.Flags |= IsList
	}
	return b
}

// Skew turns the current min/max into a skewed range.
func (b *Builder) Skew(factor float64) *Builder {
	b.param.Range = Skewed(b.param.Range.Min, b.param.Range.Max, factor)
	return b
}

// Default sets the default value (in plain range, not normalized)
func (b *Builder) Default(value float64) *Builder {
	b.param.Default = value
	return b
}

// Unit sets the unit string
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Flags sets parameter flags
func (b *Builder) Flags(flags uint32) *Builder {
	b.param.Flags = flags
	return b
}

// Group assigns the parameter to a host-visible unit.
func (b *Builder) Group(unitID int32) *Builder {
	b.param.UnitID = unitID
	return b
}

// Smooth sets the smoothing policy.
func (b *Builder) Smooth(s Smoothing) *Builder {
	b.param.Smoothing = s
	return b
}

// Toggle creates a boolean parameter
func (b *Builder) Toggle() *Builder {
	b.param.Range = BoolRange()
	b.param.Default = 0
	b.param.Smoothing = NoSmoothing()
	return b
}

// ReadOnly marks the parameter as read-only
func (b *Builder) ReadOnly() *Builder {
	b.param.Flags |= IsReadOnly
	b.param.Flags &^= CanAutomate // Remove automation flag
	return b
}

// Hidden marks the parameter as hidden
func (b *Builder) Hidden() *Builder {
	b.param.Flags |= IsHidden
	return b
}

// Bypass marks this as the bypass parameter
func (b *Builder) Bypass() *Builder {
	b.param.Flags |= IsBypass
	return b
}

// Formatter sets custom value formatting and parsing
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.formatFunc = format
	b.param.parseFunc = parse
	return b
}

// Build returns the configured parameter. Validation happens when the
// parameter is added to a Store.
func (b *Builder) Build() *Parameter {
	return b.param
}

package traverse

// FrameKind tags an entry on the metadata stack.
type FrameKind int

const (
	// FrameUnknown is the zero kind, reported when the stack is empty.
	FrameUnknown FrameKind = iota
	// FrameClass marks a frame pushed when the traversal enters an object.
	FrameClass
	// FrameProperty marks a frame pushed when the traversal enters a property.
	FrameProperty
)

func (k FrameKind) String() string {
	switch k {
	case FrameClass:
		return "class"
	case FrameProperty:
		return "property"
	default:
		return "unknown"
	}
}

// Frame records where the traversal is positioned. Exactly one of Class or
// Property is set, matching Kind.
type Frame struct {
	Kind     FrameKind
	Class    *ClassMetadata
	Property *PropertyMetadata
}

// Name returns the class or property name carried by the frame.
func (f Frame) Name() string {
	switch f.Kind {
	case FrameClass:
		if f.Class != nil {
			return f.Class.Name
		}
	case FrameProperty:
		if f.Property != nil {
			return f.Property.Name
		}
	}
	return ""
}

// MetadataStack is the LIFO sequence of frames mirroring the object graph the
// traversal is currently visiting. It is not safe for concurrent use.
type MetadataStack struct {
	frames []Frame
}

func newMetadataStack() *MetadataStack {
	return &MetadataStack{frames: make([]Frame, 0, 16)}
}

func (s *MetadataStack) push(frame Frame) {
	s.frames = append(s.frames, frame)
}

// pop removes the top frame only when it matches kind; a mismatched frame
// stays on the stack so the error reports the state that was found.
func (s *MetadataStack) pop(op string, kind FrameKind) (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, &StackError{Op: op, Expected: kind, Actual: FrameUnknown, Err: ErrStackEmpty}
	}
	top := s.frames[len(s.frames)-1]
	if top.Kind != kind {
		return Frame{}, &StackError{
			Op:       op,
			Expected: kind,
			Actual:   top.Kind,
			Depth:    len(s.frames),
			Err:      ErrStackMismatch,
		}
	}
	s.frames[len(s.frames)-1] = Frame{}
	s.frames = s.frames[:len(s.frames)-1]
	return top, nil
}

// Len returns the number of frames, class and property alike.
func (s *MetadataStack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// Empty reports whether every push has been matched by a pop.
func (s *MetadataStack) Empty() bool {
	return s.Len() == 0
}

// Depth returns the number of class frames, i.e. how many objects deep the
// traversal currently is.
func (s *MetadataStack) Depth() int {
	if s == nil {
		return 0
	}
	depth := 0
	for _, frame := range s.frames {
		if frame.Kind == FrameClass {
			depth++
		}
	}
	return depth
}

// Top returns the most recently pushed frame.
func (s *MetadataStack) Top() (Frame, bool) {
	if s.Len() == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// CurrentClass returns the nearest class frame from the top.
func (s *MetadataStack) CurrentClass() *ClassMetadata {
	if s == nil {
		return nil
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == FrameClass {
			return s.frames[i].Class
		}
	}
	return nil
}

// Frames returns a copy of the stack ordered bottom (first pushed) to top.
func (s *MetadataStack) Frames() []Frame {
	if s.Len() == 0 {
		return nil
	}
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Path returns the property names from the root to the current position.
func (s *MetadataStack) Path() []string {
	if s == nil {
		return nil
	}
	var path []string
	for _, frame := range s.frames {
		if frame.Kind == FrameProperty {
			path = append(path, frame.Name())
		}
	}
	return path
}

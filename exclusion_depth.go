package traverse

// DepthExclusionRule excludes properties once the traversal is nested deeper
// than a MaxDepth declared on any property frame leading to the current
// position.
type DepthExclusionRule struct{}

// ShouldExclude implements ExclusionRule. Navigators decide on a property
// before pushing it, so the top frame is the object being visited and is not
// counted.
func (DepthExclusionRule) ShouldExclude(_ *ClassMetadata, property *PropertyMetadata, ctx *Context) (bool, error) {
	if property == nil || ctx == nil {
		return false, nil
	}
	stack := ctx.MetadataStack()
	if stack.Len() < 2 {
		return false, nil
	}
	depth := stack.Depth()
	frames := stack.Frames()
	nth := 0
	for _, frame := range frames[:len(frames)-1] {
		if frame.Kind != FrameProperty || frame.Property == nil {
			continue
		}
		nth++
		if frame.Property.MaxDepth == nil {
			continue
		}
		if depth-nth > *frame.Property.MaxDepth {
			return true, nil
		}
	}
	return false, nil
}

package render_queue

// RenderQueueBuilderOption is a function that configures a RenderQueue during construction.
type RenderQueueBuilderOption func(*renderQueue)

// WithDegree sets the branching degree of the queue's ordered tree.
//
// Parameters:
//   - degree: the tree degree (values below 2 are ignored)
//
// Returns:
//   - RenderQueueBuilderOption: a function that applies the degree to a renderQueue
func WithDegree(degree int) RenderQueueBuilderOption {
	return func(q *renderQueue) {
		if degree >= 2 {
			q.degree = degree
		}
	}
}

// FactoryBuilderOption is a function that configures the default RenderGroupFactory.
type FactoryBuilderOption func(*defaultRenderGroupFactory)

// WithDistanceRange sets the camera distance mapped onto the last quantization level.
//
// Parameters:
//   - distanceRange: the range in world units (non-positive values are ignored)
//
// Returns:
//   - FactoryBuilderOption: a function that applies the range to the factory
func WithDistanceRange(distanceRange float32) FactoryBuilderOption {
	return func(f *defaultRenderGroupFactory) {
		if distanceRange > 0 {
			f.distanceRange = distanceRange
		}
	}
}

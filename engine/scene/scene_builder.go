package scene

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/render_queue"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/vbo_manager"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithProducers registers initial producers on the scene.
//
// Parameters:
//   - producers: the producers to add, nil entries are ignored
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithProducers(producers ...Producer) SceneBuilderOption {
	return func(s *scene) {
		for _, p := range producers {
			if p == nil {
				continue
			}
			s.producers = append(s.producers, producerEntry{id: s.nextProducerID, fn: p})
			s.nextProducerID++
		}
	}
}

// WithProducerWorkers sets the number of worker goroutines producers run on.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of producer workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithProducerWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.producerWorkers = n
	}
}

// WithQueue sets the render queue the scene fills. Defaults to a new render_queue.RenderQueue.
//
// Parameters:
//   - q: the render queue
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithQueue(q render_queue.RenderQueue) SceneBuilderOption {
	return func(s *scene) {
		s.queue = q
	}
}

// WithQueueDegree sets the degree of the default queue's ordered tree. Ignored with WithQueue.
//
// Parameters:
//   - degree: the tree degree
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithQueueDegree(degree int) SceneBuilderOption {
	return func(s *scene) {
		s.degree = degree
	}
}

// WithPool attaches the VBO manager the scene's drawables upload through, so frame stats include
// its allocation counters.
//
// Parameters:
//   - pool: the VBO manager
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPool(pool vbo_manager.VBOManager) SceneBuilderOption {
	return func(s *scene) {
		s.pool = pool
	}
}

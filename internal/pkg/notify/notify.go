// Package notify entrega snapshots de estado para quem observa os componentes
// (a UI colaboradora) sem acoplar a nenhum framework de renderização.
package notify

import "sync"

// Broadcaster publica valores do tipo T para todos os assinantes.
// O envio nunca bloqueia: um assinante lento perde snapshots intermediários e
// sempre recebe o mais recente.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
}

// NewBroadcaster cria um Broadcaster sem assinantes.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[int]chan T)}
}

// Subscribe registra um assinante. O canal tem pelo menos 1 posição de buffer.
// A função devolvida cancela a assinatura e fecha o canal; pode ser chamada mais de uma vez.
func (b *Broadcaster[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish entrega v para todos os assinantes.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// Buffer cheio: descarta o mais antigo e tenta de novo.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Len devolve o número de assinantes ativos.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Package state は永続化付きのクライアント状態コンテナを提供する。
// カートやログインセッションのように、プロセス再起動をまたいで
// 生き残り、複数のUIコンシューマーから観測される状態を1スロットずつ保持する。
package state

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Storage は永続ストレージのキーバリューインターフェース。
// 値が存在しない場合、Getはok=falseを返す（エラーではない）。
// Removeは存在しないキーに対しても成功する。
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Store は1つの名前付き状態スロットを所有するコンテナ。
// 初期化時に永続ストレージから値を復元し、以後すべての更新を
// ストレージへ同期し、購読者へコミット順に通知する。
//
// 更新は単一のミューテックスでシリアライズされるため、
// Updateに渡す関数は常に最新のコミット済み値を観測する。
// 購読者への通知はコミットと同じクリティカルセクション内で
// 同期的に行われ、ストレージ書き込みの成否を待たない。
type Store[T any] struct {
	name    string
	storage Storage
	empty   T
	logger  *slog.Logger

	mu     sync.Mutex
	value  T
	subs   map[int]func(T)
	nextID int
}

// New は名前付き状態スロットを生成し、永続ストレージから初期値を復元する。
// 復元時の挙動:
//   - キーが存在しない場合: emptyを初期値とする（書き戻しは行わない）
//   - 値がデシリアライズできない場合: エラーをログに記録し、
//     壊れた値をストレージから削除してemptyにフォールバックする
//   - ストレージ読み取り自体が失敗した場合: ログに記録しemptyにフォールバックする
//
// いずれの場合も呼び出し元にエラーは伝播しない。
func New[T any](name string, storage Storage, empty T, logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store[T]{
		name:    name,
		storage: storage,
		empty:   empty,
		logger:  logger,
		value:   empty,
		subs:    make(map[int]func(T)),
	}

	raw, ok, err := storage.Get(name)
	if err != nil {
		logger.Error("failed to read persisted state",
			slog.String("slot", name),
			slog.String("error", err.Error()),
		)
		return s
	}
	if !ok {
		return s
	}

	var restored T
	if err := json.Unmarshal([]byte(raw), &restored); err != nil {
		// 壊れた永続値は自己回復する: ログに残し、キーを削除して空値で再開する
		logger.Error("persisted state is corrupt, discarding",
			slog.String("slot", name),
			slog.String("error", err.Error()),
		)
		if rmErr := storage.Remove(name); rmErr != nil {
			logger.Error("failed to remove corrupt state",
				slog.String("slot", name),
				slog.String("error", rmErr.Error()),
			)
		}
		return s
	}

	s.value = restored
	return s
}

// Name はこのスロットの名前を返す。
func (s *Store[T]) Name() string {
	return s.name
}

// Get は現在のコミット済み値を返す。
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set は値をリテラルで置き換える。
// コミット → 購読者への同期通知 → ストレージ書き込み発行の順で実行する。
func (s *Store[T]) Set(next T) {
	s.Update(func(T) T { return next })
}

// Update は現在値から次の値を計算する純粋関数で状態を更新する。
// fnは必ず最新のコミット済み値を受け取る。連続呼び出しは
// 呼び出し順に単一のタイムラインへ適用され、更新のロストは起きない。
func (s *Store[T]) Update(fn func(prev T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = fn(s.value)
	s.notifyLocked(s.value)
	s.persistLocked(s.value)
}

// Clear は状態を空値に戻し、ストレージのキーを削除する。
// メモリ更新・購読者通知・キー削除は同一クリティカルセクション内で行われ、
// 購読者からはアトミックな1回の変更として観測される。
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = s.empty
	s.notifyLocked(s.value)

	if err := s.storage.Remove(s.name); err != nil {
		s.logger.Error("failed to remove persisted state",
			slog.String("slot", s.name),
			slog.String("error", err.Error()),
		)
	}
}

// Subscribe は購読者を登録し、解除用の関数を返す。
// 購読者は登録後にコミットされたすべての値をコミット順に受け取る。
// 解除関数が返った後は一切通知されない。
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// notifyLocked は全購読者に新しい値を同期通知する。s.muを保持して呼ぶこと。
// 登録順に通知する。
func (s *Store[T]) notifyLocked(value T) {
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			fn(value)
		}
	}
}

// persistLocked は値をシリアライズしてストレージに書き込む。s.muを保持して呼ぶこと。
// 書き込み失敗はログに記録するのみで、呼び出し元には返さない。
func (s *Store[T]) persistLocked(value T) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to serialize state",
			slog.String("slot", s.name),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.storage.Set(s.name, string(data)); err != nil {
		s.logger.Error("failed to persist state",
			slog.String("slot", s.name),
			slog.String("error", err.Error()),
		)
	}
}

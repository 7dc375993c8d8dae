package service

import (
	"math/rand"
	"sync"
	"time"
)

// 題庫，畫者每回合從中抽取候選詞
var wordList = []string{
	"cat", "dog", "house", "tree", "car", "sun", "moon", "star", "fish", "bird",
	"apple", "banana", "pizza", "cake", "rainbow", "rocket", "castle", "dragon",
	"unicorn", "phone", "book", "ocean", "giraffe", "elephant", "penguin",
	"butterfly", "flower", "heart", "smile", "fire", "plane", "train", "boat",
	"cloud", "mountain", "beach", "forest", "island", "desert", "volcano",
	"bridge", "tower", "church", "school", "hospital", "store", "icecream",
	"cookie", "donut", "burger", "fries", "coffee", "tea", "juice", "earth",
	"mars", "robot", "alien", "spaceship", "sword", "shield", "crown", "diamond",
}

// WordBank 提供不重複的隨機抽詞
type WordBank struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewWordBank() *WordBank {
	return &WordBank{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Pick 抽取 n 個互不重複的詞，n 超過題庫大小時回傳整個題庫的亂序
func (b *WordBank) Pick(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(wordList) {
		n = len(wordList)
	}

	words := make([]string, 0, n)
	for _, i := range b.rng.Perm(len(wordList))[:n] {
		words = append(words, wordList[i])
	}
	return words
}

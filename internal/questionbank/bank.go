package questionbank

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Option 单个选项，Label 为提交时使用的标识（A/B/C/D）
type Option struct {
	Label string `yaml:"label"`
	Text  string `yaml:"text"`
}

type Question struct {
	Prompt  string   `yaml:"prompt"`
	Options []Option `yaml:"options"`
	Answer  string   `yaml:"answer"`
}

// Bank 分类到题目列表的只读映射，进程启动时从配置文件加载。
// 锁只服务于配置热更新，正常读路径无竞争。
type Bank struct {
	mu         sync.RWMutex
	categories map[string][]Question
	order      []string
}

type bankFile struct {
	Categories []struct {
		Name      string     `yaml:"name"`
		Questions []Question `yaml:"questions"`
	} `yaml:"categories"`
}

func Load(path string) (*Bank, error) {
	b := &Bank{}
	if err := b.Reload(path); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload 重新读取题库文件，校验通过后整体替换
func (b *Bank) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	categories := make(map[string][]Question, len(file.Categories))
	order := make([]string, 0, len(file.Categories))
	for _, c := range file.Categories {
		if c.Name == "" {
			return fmt.Errorf("question bank: category with empty name")
		}
		if _, dup := categories[c.Name]; dup {
			return fmt.Errorf("question bank: duplicate category %q", c.Name)
		}
		for i, q := range c.Questions {
			if err := validateQuestion(q); err != nil {
				return fmt.Errorf("question bank: category %q question %d: %w", c.Name, i+1, err)
			}
		}
		categories[c.Name] = c.Questions
		order = append(order, c.Name)
	}

	b.mu.Lock()
	b.categories = categories
	b.order = order
	b.mu.Unlock()
	return nil
}

func validateQuestion(q Question) error {
	if q.Prompt == "" {
		return fmt.Errorf("empty prompt")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("needs at least 2 options")
	}
	seen := make(map[string]bool, len(q.Options))
	answerKnown := false
	for _, o := range q.Options {
		if o.Label == "" {
			return fmt.Errorf("option with empty label")
		}
		if seen[o.Label] {
			return fmt.Errorf("duplicate option label %q", o.Label)
		}
		seen[o.Label] = true
		if o.Label == q.Answer {
			answerKnown = true
		}
	}
	if !answerKnown {
		return fmt.Errorf("answer %q is not one of the option labels", q.Answer)
	}
	return nil
}

// Categories 返回已知分类名，按字典序（空分类也会列出）
func (b *Bank) Categories() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := append([]string(nil), b.order...)
	sort.Strings(out)
	return out
}

// Questions 返回某分类的题目；未知或空分类返回空切片
func (b *Bank) Questions(category string) []Question {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.categories[category]
}

func (b *Bank) Has(category string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.categories[category]) > 0
}

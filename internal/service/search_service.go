package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/talent-grid-api/internal/config"
	"github.com/talent-grid-api/internal/domain"
	"github.com/talent-grid-api/internal/dto"
	"golang.org/x/text/unicode/norm"
)

// Подстрочное совпадение не может стоить дороже этой доли порога: точное
// вхождение запроса в поле обязано проходить порог по умолчанию
const substringScoreCeiling = 0.2

// searchField описывает одно индексируемое поле и его вес.
// Чем выше вес, тем выше ранжируется совпадение в этом поле
type searchField struct {
	key    string
	weight float64
	value  func(*domain.Employee) string
}

// Поля и веса: name > business_title > job_level ≈ manager > location ≈ job_function
var searchFields = []searchField{
	{key: "name", weight: 1.0, value: func(e *domain.Employee) string { return e.Name }},
	{key: "business_title", weight: 0.8, value: func(e *domain.Employee) string { return e.BusinessTitle }},
	{key: "job_level", weight: 0.5, value: func(e *domain.Employee) string { return e.JobLevel }},
	{key: "manager", weight: 0.5, value: func(e *domain.Employee) string { return e.ManagerName() }},
	{key: "location", weight: 0.3, value: func(e *domain.Employee) string { return e.Location }},
	{key: "job_function", weight: 0.3, value: func(e *domain.Employee) string {
		if e.JobFunction == nil {
			return ""
		}
		return *e.JobFunction
	}},
}

// indexedField — предвычисленное представление одного поля одного сотрудника
type indexedField struct {
	key    string
	weight float64
	folded []rune
}

// SearchIndex — взвешенный поисковый индекс по последовательности сотрудников.
// Строится один раз на последовательность; мемоизацию между запросами держит
// SearchService, сам индекс неизменяем после постройки
type SearchIndex struct {
	cfg       config.SearchConfig
	employees []domain.Employee
	fields    [][]indexedField
	ready     bool
}

// NewSearchIndex строит индекс. Ошибка конфигурации возвращается значением,
// а не паникой: вызывающий UI должен уметь показать «поиск недоступен»,
// не теряя остальной тулбар
func NewSearchIndex(employees []domain.Employee, cfg config.SearchConfig) (*SearchIndex, error) {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v out of range (0, 1]", domain.ErrSearchUnavailable, cfg.Threshold)
	}
	if cfg.ResultLimit <= 0 {
		return nil, fmt.Errorf("%w: result limit %d must be positive", domain.ErrSearchUnavailable, cfg.ResultLimit)
	}
	if cfg.MinQueryLength < 1 {
		return nil, fmt.Errorf("%w: min query length %d must be at least 1", domain.ErrSearchUnavailable, cfg.MinQueryLength)
	}

	index := &SearchIndex{
		cfg:       cfg,
		employees: employees,
		fields:    make([][]indexedField, len(employees)),
		ready:     len(employees) > 0,
	}

	for i := range employees {
		entry := make([]indexedField, 0, len(searchFields))
		for _, f := range searchFields {
			raw := strings.TrimSpace(f.value(&employees[i]))
			if raw == "" {
				continue
			}
			entry = append(entry, indexedField{
				key:    f.key,
				weight: f.weight,
				folded: foldRunes(raw),
			})
		}
		index.fields[i] = entry
	}

	return index, nil
}

// Ready сообщает, есть ли за индексом непустой ростер
func (idx *SearchIndex) Ready() bool {
	return idx != nil && idx.ready
}

// Search возвращает ранжированный список результатов. Всегда срез, никогда
// паника: пустой, пробельный или слишком короткий запрос даёт пустой срез,
// как и неготовый индекс
func (idx *SearchIndex) Search(query string) []domain.SearchResult {
	results := []domain.SearchResult{}
	if !idx.Ready() {
		return results
	}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" || utf8.RuneCountInString(trimmed) < idx.cfg.MinQueryLength {
		return results
	}

	folded := foldRunes(trimmed)

	type candidate struct {
		index      int
		score      float64
		bestWeight float64
		matches    []domain.FieldMatch
	}

	candidates := make([]candidate, 0, len(idx.employees))
	for i := range idx.employees {
		best := candidate{index: i, score: 2.0}
		for _, field := range idx.fields[i] {
			score, ranges, ok := matchField(field.folded, folded)
			if !ok || score > idx.cfg.Threshold {
				continue
			}
			// Вес понижает итоговую стоимость: совпадение в name стоит
			// дешевле того же совпадения в location
			weighted := score + (1-field.weight)*score
			if weighted < best.score || (weighted == best.score && field.weight > best.bestWeight) {
				best.score = weighted
				best.bestWeight = field.weight
			}
			best.matches = append(best.matches, domain.FieldMatch{Key: field.key, Indices: ranges})
		}
		if len(best.matches) > 0 {
			candidates = append(candidates, best)
		}
	}

	// Детерминированный порядок: стоимость, затем вес поля, затем id —
	// одинаковый запрос по одному индексу всегда даёт одинаковый список
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		if candidates[i].bestWeight != candidates[j].bestWeight {
			return candidates[i].bestWeight > candidates[j].bestWeight
		}
		return idx.employees[candidates[i].index].EmployeeID < idx.employees[candidates[j].index].EmployeeID
	})

	limit := idx.cfg.ResultLimit
	if limit > len(candidates) {
		limit = len(candidates)
	}
	for _, c := range candidates[:limit] {
		results = append(results, domain.SearchResult{
			Employee: idx.employees[c.index],
			Score:    c.score,
			Matches:  c.matches,
		})
	}

	return results
}

// matchField оценивает запрос против одного поля. Стоимость в [0,1],
// меньше — лучше. Сначала ищутся точные вхождения (дают и диапазоны
// подсветки), затем нечёткое сравнение по Левенштейну с целым полем
// и с его токенами
func matchField(field []rune, query []rune) (float64, []domain.MatchRange, bool) {
	if len(field) == 0 || len(query) == 0 {
		return 0, nil, false
	}

	if ranges := substringRanges(field, query); len(ranges) > 0 {
		// Чем большую долю поля покрывает запрос, тем дешевле совпадение
		score := substringScoreCeiling * (1 - float64(len(query))/float64(len(field)))
		return score, ranges, true
	}

	best := runeSimilarity(field, query)
	bestRange := domain.MatchRange{Start: 0, End: len(field) - 1}
	for _, tok := range tokenize(field) {
		if sim := runeSimilarity(field[tok.Start:tok.End+1], query); sim > best {
			best = sim
			bestRange = tok
		}
	}

	score := 1 - best
	if score > 1 {
		score = 1
	}
	return score, []domain.MatchRange{bestRange}, true
}

// substringRanges находит все непересекающиеся вхождения запроса в поле.
// Паттерн экранируется: метасимволы регулярных выражений в запросе —
// обычные символы, а не синтаксис
func substringRanges(field, query []rune) []domain.MatchRange {
	re, err := regexp.Compile(regexp.QuoteMeta(string(query)))
	if err != nil {
		return nil
	}

	haystack := string(field)
	var ranges []domain.MatchRange
	for _, loc := range re.FindAllStringIndex(haystack, -1) {
		start := utf8.RuneCountInString(haystack[:loc[0]])
		ranges = append(ranges, domain.MatchRange{
			Start: start,
			End:   start + len(query) - 1,
		})
	}
	return ranges
}

// tokenize возвращает включительные диапазоны слов поля
func tokenize(field []rune) []domain.MatchRange {
	var tokens []domain.MatchRange
	start := -1
	for i, r := range field {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, domain.MatchRange{Start: start, End: i - 1})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, domain.MatchRange{Start: start, End: len(field) - 1})
	}
	return tokens
}

// runeSimilarity — нормированная близость по Левенштейну в [0,1]
func runeSimilarity(a, b []rune) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein — редакционное расстояние на двух строках матрицы
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := 0; i <= len(a); i++ {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[i] = minOf(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(a)]
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// foldRunes приводит строку к нижнему регистру и снимает диакритику:
// NFD-декомпозиция, из неё берётся первый символ без комбинируемых знаков.
// Ровно одна руна на входную руну, поэтому индексы совпадений в свёрнутой
// строке напрямую пригодны для подсветки оригинала
func foldRunes(s string) []rune {
	out := make([]rune, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, foldRune(r))
	}
	return out
}

func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		return unicode.ToLower(r)
	}
	for _, d := range norm.NFD.String(string(r)) {
		if !unicode.Is(unicode.Mn, d) {
			return unicode.ToLower(d)
		}
	}
	return unicode.ToLower(r)
}

// SearchService отвечает за мемоизацию индекса: перестройка — O(n·поля),
// делать её на каждое нажатие клавиши нельзя. Ключ кэша — сессия, версия
// ростера и отпечаток фильтра
type SearchService interface {
	Search(ctx context.Context, session *domain.Session, employees []domain.Employee, filter *dto.FilterRequest, query string) ([]domain.SearchResult, error)
}

type searchService struct {
	cfg config.SearchConfig

	mu       sync.Mutex
	cacheKey string
	index    *SearchIndex
}

// NewSearchService создаёт новый экземпляр сервиса
func NewSearchService(cfg config.SearchConfig) SearchService {
	return &searchService{cfg: cfg}
}

func (s *searchService) Search(ctx context.Context, session *domain.Session, employees []domain.Employee, filter *dto.FilterRequest, query string) ([]domain.SearchResult, error) {
	key := fmt.Sprintf("%s|%d|%s", session.ID, session.RosterVersion, filterFingerprint(filter))

	s.mu.Lock()
	index := s.index
	if s.cacheKey != key {
		index = nil
	}
	s.mu.Unlock()

	if index == nil {
		built, err := NewSearchIndex(employees, s.cfg)
		if err != nil {
			return nil, err
		}
		index = built

		s.mu.Lock()
		s.cacheKey = key
		s.index = built
		s.mu.Unlock()
	}

	return index.Search(query), nil
}

// filterFingerprint — стабильный отпечаток состояния фильтра для ключа кэша
func filterFingerprint(filter *dto.FilterRequest) string {
	if filter == nil {
		return "none"
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return "unmarshalable"
	}
	h := fnv.New64a()
	h.Write(raw)
	return fmt.Sprintf("%x", h.Sum64())
}

package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Age is one of the closed age buckets.
type Age string

const (
	AgeTeen   Age = "10대"
	Age20s    Age = "20대"
	Age30s    Age = "30대"
	Age40s    Age = "40대"
	AgeSenior Age = "시니어"
)

// Role is one of the closed role buckets.
type Role string

const (
	RoleStudent       Role = "학생"
	RoleOfficeWorker  Role = "직장인"
	RoleSmallBusiness Role = "자영업"
	RoleParent        Role = "육아"
	RolePremium       Role = "프리미엄"
)

// DefaultAge is the youngest adult bucket, used when only a role is given.
const DefaultAge = Age20s

var (
	ages  = []Age{AgeTeen, Age20s, Age30s, Age40s, AgeSenior}
	roles = []Role{RoleStudent, RoleOfficeWorker, RoleSmallBusiness, RoleParent, RolePremium}

	ageAliases = map[string]Age{
		"teen":   AgeTeen,
		"20s":    Age20s,
		"30s":    Age30s,
		"40s":    Age40s,
		"senior": AgeSenior,
	}
	roleAliases = map[string]Role{
		"student":         RoleStudent,
		"office-worker":   RoleOfficeWorker,
		"small-business":  RoleSmallBusiness,
		"parent":          RoleParent,
		"premium-shopper": RolePremium,
	}
)

// Ages lists the closed age buckets in display order.
func Ages() []Age { return append([]Age(nil), ages...) }

// Roles lists the closed role buckets in display order.
func Roles() []Role { return append([]Role(nil), roles...) }

// AgeProfile holds every trait of an age bucket.
type AgeProfile struct {
	Style       string      `yaml:"style"`
	Lexicon     []string    `yaml:"lexicon"`
	Avoid       []string    `yaml:"avoid"`
	CTA         []string    `yaml:"cta"`
	Required    []string    `yaml:"required"`
	Emoji       EmojiPolicy `yaml:"emoji"`
	Formality   Formality   `yaml:"formality"`
	Punctuation Punctuation `yaml:"punctuation"`
	HeadlineLen Range       `yaml:"headline_len"`
	SublineLen  Range       `yaml:"subline_len"`
}

// RoleProfile holds the additions a role bucket contributes on top of an age profile.
type RoleProfile struct {
	Style    string   `yaml:"style"`
	Lexicon  []string `yaml:"lexicon"`
	Avoid    []string `yaml:"avoid"`
	CTA      []string `yaml:"cta"`
	Required []string `yaml:"required"`
}

func (p AgeProfile) spec(age Age) Spec {
	return Spec{
		Age:         age,
		Style:       p.Style,
		Lexicon:     append([]string(nil), p.Lexicon...),
		Avoid:       append([]string(nil), p.Avoid...),
		CTA:         append([]string(nil), p.CTA...),
		Required:    append([]string(nil), p.Required...),
		Emoji:       p.Emoji,
		Formality:   p.Formality,
		Punctuation: p.Punctuation,
		HeadlineLen: p.HeadlineLen,
		SublineLen:  p.SublineLen,
	}
}

// Table is an immutable snapshot of the age and role trait tables. It is safe for
// concurrent readers because nothing mutates it after construction.
type Table struct {
	ages  map[Age]AgeProfile
	roles map[Role]RoleProfile
}

// Builtin returns the trait table compiled into the binary.
func Builtin() *Table {
	return &Table{
		ages: map[Age]AgeProfile{
			AgeTeen: {
				Style:       "트렌디하고 가벼운 말투, 밈 감성",
				Lexicon:     []string{"꿀템", "핫템", "인싸", "찐", "갓성비"},
				Avoid:       []string{"고객님", "귀하"},
				CTA:         []string{"지금 바로", "득템하기"},
				Emoji:       EmojiAllowOne,
				Formality:   FormalityCasual,
				Punctuation: PunctuationNormal,
				HeadlineLen: Range{Min: 8, Max: 18},
				SublineLen:  Range{Min: 16, Max: 36},
			},
			Age20s: {
				Style:       "감각적이고 솔직한 톤",
				Lexicon:     []string{"감성", "데일리", "가성비", "취향", "힙한"},
				Avoid:       []string{"어르신", "귀하"},
				CTA:         []string{"지금 확인", "바로 구매", "담아두기"},
				Emoji:       EmojiAllowOne,
				Formality:   FormalityCasual,
				Punctuation: PunctuationLight,
				HeadlineLen: Range{Min: 10, Max: 20},
				SublineLen:  Range{Min: 18, Max: 40},
			},
			Age30s: {
				Style:       "실용적이고 신뢰감 있는 톤",
				Lexicon:     []string{"합리적", "검증", "효율", "퀄리티", "프리미엄"},
				Avoid:       []string{"대박", "ㅋㅋ"},
				CTA:         []string{"자세히 보기", "지금 만나보세요"},
				Emoji:       EmojiNone,
				Formality:   FormalityNeutral,
				Punctuation: PunctuationLight,
				HeadlineLen: Range{Min: 10, Max: 22},
				SublineLen:  Range{Min: 20, Max: 44},
			},
			Age40s: {
				Style:       "차분하고 믿음직한 톤",
				Lexicon:     []string{"품질", "가족", "건강", "안심", "오래"},
				Avoid:       []string{"ㅋㅋ", "꿀템", "인싸"},
				CTA:         []string{"지금 확인하세요", "상담 신청"},
				Emoji:       EmojiNone,
				Formality:   FormalityPolite,
				Punctuation: PunctuationLight,
				HeadlineLen: Range{Min: 10, Max: 22},
				SublineLen:  Range{Min: 20, Max: 46},
			},
			AgeSenior: {
				Style:       "쉽고 정중한 설명형 톤",
				Lexicon:     []string{"편안", "안심", "쉽게", "건강", "튼튼"},
				Avoid:       []string{"힙한", "ㅋㅋ", "인싸", "갓성비"},
				CTA:         []string{"전화 문의", "지금 알아보세요"},
				Emoji:       EmojiNone,
				Formality:   FormalityPolite,
				Punctuation: PunctuationLight,
				HeadlineLen: Range{Min: 8, Max: 20},
				SublineLen:  Range{Min: 18, Max: 44},
			},
		},
		roles: map[Role]RoleProfile{
			RoleStudent: {
				Style:   "용돈 부담 없는 실속",
				Lexicon: []string{"가성비", "할인", "학생"},
				Avoid:   []string{"고가"},
				CTA:     []string{"학생 할인 받기"},
			},
			RoleOfficeWorker: {
				Style:   "바쁜 일상 속 시간 절약",
				Lexicon: []string{"출근", "퇴근", "효율", "시간 절약"},
				CTA:     []string{"퇴근길 주문"},
			},
			RoleSmallBusiness: {
				Style:   "매출과 운영 효율",
				Lexicon: []string{"매출", "단골", "운영"},
				CTA:     []string{"도입 문의"},
			},
			RoleParent: {
				Style:    "아이와 가족의 안심",
				Lexicon:  []string{"아이", "가족", "안심"},
				Avoid:    []string{"자극적"},
				CTA:      []string{"우리 아이 선물하기"},
				Required: []string{"안심", "안전"},
			},
			RolePremium: {
				Style:   "품격과 희소성",
				Lexicon: []string{"프리미엄", "한정", "장인"},
				Avoid:   []string{"싸게", "할인", "가성비"},
				CTA:     []string{"지금 예약"},
			},
		},
	}
}

type tableFile struct {
	Ages  map[string]AgeProfile  `yaml:"ages"`
	Roles map[string]RoleProfile `yaml:"roles"`
}

// LoadTable reads a YAML override on top of the built-in table. Buckets missing from the
// file keep their built-in traits; bucket names outside the closed sets are rejected.
func LoadTable(path string) (*Table, error) {
	table := Builtin()
	if strings.TrimSpace(path) == "" {
		return table, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read persona table: %w", err)
	}
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal persona table: %w", err)
	}
	for name, profile := range file.Ages {
		age, ok := table.lookupAge(name)
		if !ok {
			return nil, fmt.Errorf("%w: age %q", ErrUnknownBucket, name)
		}
		table.ages[age] = fillAgeDefaults(profile)
	}
	for name, profile := range file.Roles {
		role, ok := table.lookupRole(name)
		if !ok {
			return nil, fmt.Errorf("%w: role %q", ErrUnknownBucket, name)
		}
		table.roles[role] = profile
	}
	return table, nil
}

func fillAgeDefaults(p AgeProfile) AgeProfile {
	neutral := Neutral()
	if p.Emoji == "" {
		p.Emoji = neutral.Emoji
	}
	if p.Formality == "" {
		p.Formality = neutral.Formality
	}
	if p.Punctuation == "" {
		p.Punctuation = neutral.Punctuation
	}
	if p.HeadlineLen.Max <= 0 {
		p.HeadlineLen = neutral.HeadlineLen
	}
	if p.SublineLen.Max <= 0 {
		p.SublineLen = neutral.SublineLen
	}
	return p
}

func (t *Table) lookupAge(token string) (Age, bool) {
	if _, ok := t.ages[Age(token)]; ok {
		return Age(token), true
	}
	age, ok := ageAliases[token]
	return age, ok
}

func (t *Table) lookupRole(token string) (Role, bool) {
	if _, ok := t.roles[Role(token)]; ok {
		return Role(token), true
	}
	role, ok := roleAliases[token]
	return role, ok
}

// Tokens returns every accepted token, canonical and alias, sorted for display.
func (t *Table) Tokens() (ageTokens, roleTokens []string) {
	for _, a := range ages {
		ageTokens = append(ageTokens, string(a))
	}
	for alias := range ageAliases {
		ageTokens = append(ageTokens, alias)
	}
	for _, r := range roles {
		roleTokens = append(roleTokens, string(r))
	}
	for alias := range roleAliases {
		roleTokens = append(roleTokens, alias)
	}
	sort.Strings(ageTokens[len(ages):])
	sort.Strings(roleTokens[len(roles):])
	return ageTokens, roleTokens
}

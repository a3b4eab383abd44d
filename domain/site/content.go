package site

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var embeddedContent []byte

// CTA is a call to action that opens the capture form tagged with Source.
type CTA struct {
	Label  string `yaml:"label" json:"label"`
	Source string `yaml:"source" json:"source"`
}

type Hero struct {
	Title       string `yaml:"title" json:"title"`
	Highlight   string `yaml:"highlight" json:"highlight"`
	Subtitle    string `yaml:"subtitle" json:"subtitle"`
	SocialProof string `yaml:"social_proof" json:"social_proof"`
	CTA         CTA    `yaml:"cta" json:"cta"`
}

type Problem struct {
	Stat        string `yaml:"stat" json:"stat"`
	Description string `yaml:"description" json:"description"`
}

type Step struct {
	Number      int    `yaml:"number" json:"number"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type Testimonial struct {
	Quote  string `yaml:"quote" json:"quote"`
	Author string `yaml:"author" json:"author"`
	Role   string `yaml:"role" json:"role"`
}

type ValueProp struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type FinalCTA struct {
	Title     string `yaml:"title" json:"title"`
	Subtitle  string `yaml:"subtitle" json:"subtitle"`
	FinePrint string `yaml:"fine_print" json:"fine_print"`
	Tagline   string `yaml:"tagline" json:"tagline"`
	CTA       CTA    `yaml:"cta" json:"cta"`
}

type Landing struct {
	Hero         Hero          `yaml:"hero" json:"hero"`
	Problems     []Problem     `yaml:"problems" json:"problems"`
	Steps        []Step        `yaml:"steps" json:"steps"`
	Testimonials []Testimonial `yaml:"testimonials" json:"testimonials"`
	Values       []ValueProp   `yaml:"values" json:"values"`
	FinalCTA     FinalCTA      `yaml:"final_cta" json:"final_cta"`
	HeaderCTA    CTA           `yaml:"header_cta" json:"header_cta"`
}

type Tier struct {
	Name        string   `yaml:"name" json:"name"`
	Price       string   `yaml:"price" json:"price"`
	Period      string   `yaml:"period" json:"period"`
	Description string   `yaml:"description" json:"description"`
	Features    []string `yaml:"features" json:"features"`
}

type FAQ struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

type Banner struct {
	Title string `yaml:"title" json:"title"`
	CTA   CTA    `yaml:"cta" json:"cta"`
}

type Pricing struct {
	Title    string `yaml:"title" json:"title"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
	Tiers    []Tier `yaml:"tiers" json:"tiers"`
	Banner   Banner `yaml:"banner" json:"banner"`
	FAQs     []FAQ  `yaml:"faqs" json:"faqs"`
}

type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type FormOptions struct {
	Roles    []Option `yaml:"roles" json:"roles"`
	Meetings []Option `yaml:"meetings" json:"meetings"`
}

type Content struct {
	Landing     Landing     `yaml:"landing"`
	Pricing     Pricing     `yaml:"pricing"`
	FormOptions FormOptions `yaml:"form_options"`
}

// CTAs lists every call to action on the landing and pricing pages.
func (c *Content) CTAs() []CTA {
	return []CTA{
		c.Landing.HeaderCTA,
		c.Landing.Hero.CTA,
		c.Landing.FinalCTA.CTA,
		c.Pricing.Banner.CTA,
	}
}

// LoadContent parses the content bundled with the binary.
func LoadContent() (*Content, error) {
	return ParseContent(embeddedContent)
}

// ParseContent decodes a content document, fills derived option labels and
// checks that every CTA carries a source tag.
func ParseContent(data []byte) (*Content, error) {
	var content Content
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parse site content: %w", err)
	}

	for _, cta := range content.CTAs() {
		if strings.TrimSpace(cta.Source) == "" {
			return nil, fmt.Errorf("site content: call to action %q has no source", cta.Label)
		}
	}

	if err := fillLabels(content.FormOptions.Roles); err != nil {
		return nil, fmt.Errorf("site content: roles: %w", err)
	}
	if err := fillLabels(content.FormOptions.Meetings); err != nil {
		return nil, fmt.Errorf("site content: meetings: %w", err)
	}

	return &content, nil
}

func fillLabels(options []Option) error {
	for i := range options {
		if options[i].Value == "" {
			return fmt.Errorf("option %d has no value", i)
		}
		if options[i].Label == "" {
			options[i].Label = LabelFor(options[i].Value)
		}
	}
	return nil
}

// LabelFor turns an option value such as "product-manager" into "Product Manager".
func LabelFor(value string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(value)
	return cases.Title(language.English).String(words)
}

package schedule

import (
	"errors"
	"testing"
)

func TestGenerate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		typ  Type
		v    Values
		want string
	}{
		{name: "every n minutes", typ: EveryNMinutes, v: Values{MinutesInterval: 15}, want: "*/15 * * * *"},
		{name: "hourly", typ: Hourly, v: Values{MinuteOfHour: 5}, want: "5 * * * *"},
		{name: "daily", typ: Daily, v: Values{HourOfDay: 14, MinuteOfDay: 30}, want: "30 14 * * *"},
		{
			name: "specific times keep order and duplicates",
			typ:  SpecificTimes,
			v:    Values{SpecificTimes: []TimeOfDay{{Hour: 17, Minute: 0}, {Hour: 9, Minute: 30}, {Hour: 9, Minute: 30}}},
			want: "0,30,30 17,9,9 * * *",
		},
		{name: "weekly", typ: Weekly, v: Values{HourOfWeek: 9, MinuteOfWeek: 0, DaysOfWeek: []int{5, 1, 3}}, want: "0 9 * * 1,3,5"},
		{name: "monthly", typ: Monthly, v: Values{DayOfMonth: 15, HourOfMonth: 3, MinuteOfMonth: 45}, want: "45 3 15 * *"},
		{name: "custom verbatim", typ: Custom, v: Values{RawExpression: "  0 */2 1-5 * *  "}, want: "0 */2 1-5 * *"},
		{name: "unset type", typ: TypeUnset, v: Values{HourOfDay: 3}, want: DefaultExpression},
		{name: "unknown type", typ: Type(42), want: DefaultExpression},
		{name: "empty specific times", typ: SpecificTimes, want: DefaultExpression},
		{name: "empty weekly days", typ: Weekly, v: Values{HourOfWeek: 8}, want: DefaultExpression},
		{name: "empty custom", typ: Custom, v: Values{RawExpression: "   "}, want: DefaultExpression},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Generate(tt.typ, tt.v); got != tt.want {
				t.Fatalf("Generate(%v) = %q, want %q", tt.typ, got, tt.want)
			}
		})
	}
}

func TestGenerateClampsOutOfRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typ  Type
		v    Values
		want string
	}{
		{EveryNMinutes, Values{MinutesInterval: 0}, "*/1 * * * *"},
		{EveryNMinutes, Values{MinutesInterval: 90}, "*/59 * * * *"},
		{Hourly, Values{MinuteOfHour: -3}, "0 * * * *"},
		{Daily, Values{HourOfDay: 30, MinuteOfDay: 75}, "59 23 * * *"},
		{Weekly, Values{HourOfWeek: 9, DaysOfWeek: []int{-1, 9, 3, 3}}, "0 9 * * 0,3,6"},
		{Monthly, Values{DayOfMonth: 0, HourOfMonth: 25, MinuteOfMonth: 0}, "0 23 1 * *"},
		{Monthly, Values{DayOfMonth: 40}, "0 0 31 * *"},
		{SpecificTimes, Values{SpecificTimes: []TimeOfDay{{Hour: 24, Minute: 60}}}, "59 23 * * *"},
	}
	for _, tt := range tests {
		if got := Generate(tt.typ, tt.v); got != tt.want {
			t.Fatalf("Generate(%v, %+v) = %q, want %q", tt.typ, tt.v, got, tt.want)
		}
	}
}

func TestCompileReportsFallback(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typ  Type
		v    Values
		want error
	}{
		{TypeUnset, Values{}, ErrUnknownType},
		{SpecificTimes, Values{}, ErrNoTimes},
		{Weekly, Values{}, ErrNoDays},
		{Custom, Values{}, ErrEmptyExpression},
	}
	for _, tt := range tests {
		c := Compile(tt.typ, tt.v)
		if c.Expr != DefaultExpression {
			t.Fatalf("Compile(%v).Expr = %q, want default", tt.typ, c.Expr)
		}
		if !errors.Is(c.Fallback, tt.want) {
			t.Fatalf("Compile(%v).Fallback = %v, want %v", tt.typ, c.Fallback, tt.want)
		}
	}

	if c := Compile(Daily, Values{HourOfDay: 9}); c.Fallback != nil {
		t.Fatalf("unexpected fallback for daily: %v", c.Fallback)
	}
}

func TestGenerateCustomPassthrough(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"*/5 * * * *", "0 0 1 1 *", "not a cron", "@hourly", "x"} {
		if got := Generate(Custom, Values{RawExpression: s}); got != s {
			t.Fatalf("Generate(Custom, %q) = %q", s, got)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		typ     Type
		v       Values
		wantErr error
	}{
		{name: "daily ok", typ: Daily, v: Values{HourOfDay: 99}},
		{name: "no times", typ: SpecificTimes, wantErr: ErrNoTimes},
		{name: "no days", typ: Weekly, wantErr: ErrNoDays},
		{name: "empty custom", typ: Custom, wantErr: ErrEmptyExpression},
		{name: "short custom", typ: Custom, v: Values{RawExpression: "* * *"}, wantErr: ErrFieldCount},
		{name: "custom ok", typ: Custom, v: Values{RawExpression: "0 0 1-7 * 1"}},
		{name: "unset", typ: TypeUnset, wantErr: ErrUnknownType},
	}
	for _, tt := range tests {
		err := Validate(tt.typ, tt.v)
		if tt.wantErr == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: err = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()
	for _, typ := range Types() {
		got, ok := ParseType(typ.String())
		if !ok || got != typ {
			t.Fatalf("ParseType(%q) = %v, %v", typ.String(), got, ok)
		}
	}
	if got, ok := ParseType("Every-N-Minutes"); !ok || got != EveryNMinutes {
		t.Fatalf("ParseType should ignore case and dashes, got %v %v", got, ok)
	}
	if _, ok := ParseType("yearly"); ok {
		t.Fatal("expected yearly to be rejected")
	}
}

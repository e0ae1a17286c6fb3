package category

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// loadLua reads a poi_mapping.lua file: a chunk returning an ordered
// table of category entries. Matches are either "key=value" strings or
// tables of {key, value} pair tables (the generated layout).
func loadLua(path string) (*RuleSet, error) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("failed to load Lua mapping: %w", err)
	}

	ret := L.Get(-1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("Lua mapping must return a table, got %s", ret.Type())
	}

	var categories []Category
	var convErr error

	tbl.ForEach(func(_, v lua.LValue) {
		if convErr != nil {
			return
		}
		entry, ok := v.(*lua.LTable)
		if !ok {
			convErr = fmt.Errorf("category entry must be a table, got %s", v.Type())
			return
		}
		cat, err := luaCategory(entry)
		if err != nil {
			convErr = err
			return
		}
		categories = append(categories, cat)
	})
	if convErr != nil {
		return nil, convErr
	}

	return NewRuleSet(categories)
}

func luaCategory(entry *lua.LTable) (Category, error) {
	cat := Category{
		Class: lua.LVAsString(entry.RawGetString("class")),
		Label: lua.LVAsString(entry.RawGetString("label")),
		Icon:  lua.LVAsString(entry.RawGetString("icon")),
	}
	if fb := entry.RawGetString("is_fallback"); fb != lua.LNil {
		cat.IsFallback = lua.LVAsBool(fb)
	}

	matches := entry.RawGetString("matches")
	if matches == lua.LNil {
		return cat, nil
	}
	matchTbl, ok := matches.(*lua.LTable)
	if !ok {
		return cat, fmt.Errorf("category %q: matches must be a table", cat.Class)
	}

	var convErr error
	matchTbl.ForEach(func(_, mv lua.LValue) {
		if convErr != nil {
			return
		}
		switch m := mv.(type) {
		case lua.LString:
			cat.Matches = append(cat.Matches, string(m))
		case *lua.LTable:
			s, err := luaPairList(m)
			if err != nil {
				convErr = fmt.Errorf("category %q: %w", cat.Class, err)
				return
			}
			cat.Matches = append(cat.Matches, s)
		default:
			convErr = fmt.Errorf("category %q: match must be a string or pair table, got %s", cat.Class, mv.Type())
		}
	})
	if convErr != nil {
		return cat, convErr
	}

	return cat, nil
}

// luaPairList converts { {'key', 'value'}, ... } into the canonical
// "key=value&key=value" predicate syntax.
func luaPairList(tbl *lua.LTable) (string, error) {
	var parts []string
	var convErr error

	tbl.ForEach(func(_, pv lua.LValue) {
		if convErr != nil {
			return
		}
		pair, ok := pv.(*lua.LTable)
		if !ok || pair.Len() != 2 {
			convErr = fmt.Errorf("match pair must be a {key, value} table")
			return
		}
		key := lua.LVAsString(pair.RawGetInt(1))
		value := lua.LVAsString(pair.RawGetInt(2))
		parts = append(parts, key+"="+value)
	})
	if convErr != nil {
		return "", convErr
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("match contains no pairs")
	}

	return strings.Join(parts, "&"), nil
}

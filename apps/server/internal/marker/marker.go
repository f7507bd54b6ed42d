package marker

import (
	"math"
	"strconv"

	"LovMapServer/consts"
	"LovMapServer/model"
)

// Group 同一坐标上的标记点聚合。
// 地图上一个坐标只渲染一个复合标记：
//   - Primary 决定主表情与主颜色，优先取观察者自己的标记点；
//   - Secondary 是与 Primary 不同所有者的第一个标记点，用于叠加角标；
//   - Lovs 携带完整分组，供点击后展开详情。
type Group struct {
	Key       string       `json:"key"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Primary   *model.Lov   `json:"primary"`
	Secondary *model.Lov   `json:"secondary,omitempty"`
	Lovs      []*model.Lov `json:"lovs"`
}

// roundCoord 坐标按固定精度截断，同一地点的微小 GPS 抖动落入同一组
func roundCoord(v float64) float64 {
	factor := math.Pow10(consts.CoordPrecision)
	return math.Round(v*factor) / factor
}

// GroupKey 构造分组键
func GroupKey(lat, lon float64) string {
	return strconv.FormatFloat(roundCoord(lat), 'f', consts.CoordPrecision, 64) +
		"," +
		strconv.FormatFloat(roundCoord(lon), 'f', consts.CoordPrecision, 64)
}

// Composite 把可见标记点聚合成地图标记。
// 分组顺序按首次出现排列，组内保持输入顺序，结果对相同输入稳定。
func Composite(viewerUUID string, lovs []*model.Lov) []*Group {
	groups := make(map[string]*Group)
	order := make([]string, 0)

	for _, lov := range lovs {
		if lov == nil {
			continue
		}
		key := GroupKey(lov.Latitude, lov.Longitude)
		g, ok := groups[key]
		if !ok {
			g = &Group{
				Key:       key,
				Latitude:  roundCoord(lov.Latitude),
				Longitude: roundCoord(lov.Longitude),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.Lovs = append(g.Lovs, lov)
	}

	out := make([]*Group, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.Primary = pickPrimary(viewerUUID, g.Lovs)
		g.Secondary = pickSecondary(g.Primary, g.Lovs)
		out = append(out, g)
	}
	return out
}

// pickPrimary 主标记：观察者自己的优先，否则取组内第一个
func pickPrimary(viewerUUID string, lovs []*model.Lov) *model.Lov {
	for _, lov := range lovs {
		if lov.UserUuid == viewerUUID {
			return lov
		}
	}
	if len(lovs) > 0 {
		return lovs[0]
	}
	return nil
}

// pickSecondary 副标记：与主标记不同所有者的第一个
func pickSecondary(primary *model.Lov, lovs []*model.Lov) *model.Lov {
	if primary == nil {
		return nil
	}
	for _, lov := range lovs {
		if lov.UserUuid != primary.UserUuid {
			return lov
		}
	}
	return nil
}

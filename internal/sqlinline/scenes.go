package sqlinline

const QSelectVisibleScene = `--sql 0fa385d4-5e32-4c69-8b07-f943a39207ed
select
    s.id,
    coalesce(s.user_id, ''),
    s.name,
    s.type,
    coalesce(s.description, ''),
    s.config,
    coalesce(c.name, '')
from scenes s
left join scene_categories c on c.id = s.category_id
where s.id = $1::bigint
  and (s.user_id is null or s.user_id = $2::text)
  and s.is_active;
`

const QListVisibleScenes = `--sql 61d2a819-1b45-4e3b-8c08-908a08d6c039
select
    s.id,
    coalesce(s.user_id, ''),
    s.name,
    s.type,
    coalesce(s.description, ''),
    s.config,
    coalesce(c.name, '')
from scenes s
left join scene_categories c on c.id = s.category_id
where (s.user_id is null or s.user_id = $1::text)
  and s.is_active
order by c.sort_order asc nulls last, s.sort_order asc, s.id asc;
`
